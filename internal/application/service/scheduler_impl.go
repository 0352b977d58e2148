package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

const (
	defaultMessageText = "Hello World"
	defaultEmitTimeout = 10 * time.Second
)

// SchedulerConfig tunes the notifications a scheduler emits.
type SchedulerConfig struct {
	// MessageText prefixes the sequence number in every notification.
	MessageText string
	// EmitTimeout bounds a single sink call.
	EmitTimeout time.Duration
}

type loadResult struct {
	option constant.TimerOption
}

type notificationScheduler struct {
	settings  repository.SettingReader
	sink      NotificationSink
	ticker    TickScheduler
	lifecycle LifecycleController
	log       logger.Logger
	cfg       SchedulerConfig

	mailbox   *ReconfigurationChannel
	ticks     chan uint64
	kicks     chan struct{}
	statusReq chan chan dto.SchedulerStatus
	loaded    chan loadResult

	startOnce sync.Once
	started   chan struct{}
	cancel    context.CancelFunc
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	// Owned by the loop goroutine.
	state      constant.SchedulerState
	option     constant.TimerOption
	cadence    constant.Cadence
	enabled    bool
	sequence   int
	generation uint64
	entryID    cron.EntryID
	armed      bool
	configured bool

	// Written by the loop before done is closed.
	exit  ExitReason
	final dto.SchedulerStatus
}

// NewNotificationScheduler creates one scheduler lifetime. Nothing runs until Start.
func NewNotificationScheduler(
	settings repository.SettingReader,
	sink NotificationSink,
	ticker TickScheduler,
	lifecycle LifecycleController,
	log logger.Logger,
	cfg SchedulerConfig,
) NotificationScheduler {
	if cfg.MessageText == "" {
		cfg.MessageText = defaultMessageText
	}
	if cfg.EmitTimeout <= 0 {
		cfg.EmitTimeout = defaultEmitTimeout
	}
	return &notificationScheduler{
		settings:  settings,
		sink:      sink,
		ticker:    ticker,
		lifecycle: lifecycle,
		log:       log.With("component", "scheduler"),
		cfg:       cfg,
		mailbox:   NewReconfigurationChannel(),
		ticks:     make(chan uint64),
		kicks:     make(chan struct{}),
		statusReq: make(chan chan dto.SchedulerStatus),
		loaded:    make(chan loadResult, 1),
		started:   make(chan struct{}),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
		state:     constant.StateStopped,
		option:    constant.TimerDisabled,
		sequence:  1,
	}
}

// Start launches the loop and reads the persisted option off the loop.
func (s *notificationScheduler) Start(ctx context.Context) error {
	err := fmt.Errorf("%w: scheduler already started", appErrors.ErrScheduling)
	s.startOnce.Do(func() {
		err = nil
		loopCtx, cancel := context.WithCancel(ctx)
		s.cancel = cancel
		close(s.started)
		go s.loop(loopCtx)
		go s.loadPersisted(loopCtx)
	})
	return err
}

// Post hands msg to the loop. Messages posted after the lifetime ended are dropped.
func (s *notificationScheduler) Post(msg dto.ReconfigurationMessage) {
	s.mailbox.Post(msg)
}

// Kick hands an immediate-tick request to the loop. It returns once the loop has accepted it.
func (s *notificationScheduler) Kick() {
	select {
	case <-s.started:
	default:
		return
	}
	select {
	case s.kicks <- struct{}{}:
	case <-s.done:
	}
}

// Status returns a snapshot of the lifetime. After Done it returns the final snapshot.
func (s *notificationScheduler) Status(ctx context.Context) (dto.SchedulerStatus, error) {
	select {
	case <-s.started:
	default:
		return dto.SchedulerStatus{State: constant.StateStopped.String(), TimerOption: s.option.String(), CadenceMs: -1, Sequence: s.sequence}, nil
	}
	reply := make(chan dto.SchedulerStatus, 1)
	select {
	case s.statusReq <- reply:
	case <-s.done:
		return s.final, nil
	case <-ctx.Done():
		return dto.SchedulerStatus{}, ctx.Err()
	}
	select {
	case st := <-reply:
		return st, nil
	case <-ctx.Done():
		return dto.SchedulerStatus{}, ctx.Err()
	}
}

func (s *notificationScheduler) Ready() <-chan struct{} { return s.ready }

func (s *notificationScheduler) Done() <-chan struct{} { return s.done }

func (s *notificationScheduler) ExitReason() ExitReason {
	select {
	case <-s.done:
		return s.exit
	default:
		return ExitNone
	}
}

// Stop cancels the lifetime and waits for the loop to exit.
func (s *notificationScheduler) Stop() {
	select {
	case <-s.started:
	default:
		return
	}
	s.cancel()
	<-s.done
}

func (s *notificationScheduler) loadPersisted(ctx context.Context) {
	option := constant.TimerDisabled
	value, ok, err := s.settings.Read(ctx, constant.TimerOptionKey)
	switch {
	case err != nil:
		s.log.Error("Failed to read persisted timer option, treating as disabled", err)
	case !ok:
		s.log.Info("No persisted timer option, treating as disabled")
	default:
		option = constant.DecodeTimerOption(value)
	}
	select {
	case s.loaded <- loadResult{option: option}:
	case <-ctx.Done():
	}
}

func (s *notificationScheduler) loop(ctx context.Context) {
	s.exit = ExitShutdown
	defer s.finish()

	for {
		// Pending reconfiguration is applied before anything else so that a tick
		// queued by a cancelled schedule is already stale when it is read.
		select {
		case msg := <-s.mailbox.C():
			if s.applyReconfiguration(msg) {
				return
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case msg := <-s.mailbox.C():
			if s.applyReconfiguration(msg) {
				return
			}
		case res := <-s.loaded:
			s.applyLoaded(res)
		case gen := <-s.ticks:
			s.onTick(ctx, gen)
		case <-s.kicks:
			s.onKick(ctx)
		case reply := <-s.statusReq:
			reply <- s.snapshot()
		}
	}
}

func (s *notificationScheduler) finish() {
	if r := recover(); r != nil {
		s.exit = ExitCrashed
		s.log.Error(fmt.Sprintf("Scheduler loop panicked: %v", r), fmt.Errorf("%s", debug.Stack()))
	}
	s.cancelPending()
	s.state = constant.StateStopped
	s.final = s.snapshot()
	s.markReady()
	if s.exit == ExitDisabled {
		s.lifecycle.OnDisableRequested()
	}
	s.log.Info(fmt.Sprintf("Scheduler lifetime ended (%s) after %d notifications", s.exit, s.sequence-1))
	close(s.done)
	s.cancel()
}

// applyLoaded applies the persisted option unless a reconfiguration got there first.
func (s *notificationScheduler) applyLoaded(res loadResult) {
	if s.configured {
		s.log.Debug(fmt.Sprintf("Discarding persisted option %s, already reconfigured", res.option))
		return
	}
	s.configured = true
	s.setOption(res.option)
	if !s.enabled {
		s.state = constant.StateIdle
		s.log.Info("Persisted timer option is disabled, scheduler idle")
	} else {
		s.arm()
	}
	s.markReady()
}

// applyReconfiguration reports whether the lifetime must end.
func (s *notificationScheduler) applyReconfiguration(msg dto.ReconfigurationMessage) bool {
	s.configured = true
	s.cancelPending()
	s.setOption(constant.DecodeTimerOption(msg.TimerOption))
	s.log.Info(fmt.Sprintf("Reconfigured: %q -> %s", msg.TimerOption, s.option))

	if !s.enabled {
		s.exit = ExitDisabled
		return true
	}
	s.arm()
	s.markReady()
	return false
}

func (s *notificationScheduler) setOption(opt constant.TimerOption) {
	s.option = opt
	s.cadence = constant.CadenceOf(opt)
	s.enabled = s.cadence.Enabled()
}

// arm registers the repeating tick for the current cadence, first fire at now+cadence.
func (s *notificationScheduler) arm() {
	s.generation++
	gen := s.generation
	id, err := s.ticker.Every(s.cadence.Interval(), func() { s.deliverTick(gen) })
	if err != nil {
		s.state = constant.StateIdle
		s.log.Error(fmt.Sprintf("Failed to arm %s cadence", s.cadence), err)
		return
	}
	s.entryID = id
	s.armed = true
	s.state = constant.StateRunning
	s.log.Debug(fmt.Sprintf("Armed tick every %s (generation %d, job %d)", s.cadence, gen, id))
}

// cancelPending removes the armed entry and invalidates its in-flight ticks.
func (s *notificationScheduler) cancelPending() {
	s.generation++
	if !s.armed {
		return
	}
	s.ticker.RemoveJob(s.entryID)
	s.armed = false
	s.entryID = 0
}

// deliverTick runs on the timer backend and only forwards the tick into the loop.
func (s *notificationScheduler) deliverTick(gen uint64) {
	select {
	case s.ticks <- gen:
	case <-s.done:
	}
}

func (s *notificationScheduler) onTick(ctx context.Context, gen uint64) {
	if !s.armed || gen != s.generation {
		s.log.Debug(fmt.Sprintf("Dropping stale tick (generation %d, current %d)", gen, s.generation))
		return
	}
	s.fire(ctx)
}

func (s *notificationScheduler) onKick(ctx context.Context) {
	if s.state != constant.StateRunning {
		s.log.Debug("Kick ignored, scheduler not running")
		return
	}
	s.cancelPending()
	s.fire(ctx)
	s.arm()
}

func (s *notificationScheduler) fire(ctx context.Context) {
	if !s.enabled {
		return
	}
	seq := s.sequence
	s.emit(ctx, seq)
	s.sequence++
}

// emit isolates the loop from sink failures, panics included.
func (s *notificationScheduler) emit(ctx context.Context, seq int) {
	message := fmt.Sprintf("%s %d", s.cfg.MessageText, seq)
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: sink panicked: %v", appErrors.ErrDelivery, r)
			}
		}()
		emitCtx, cancel := context.WithTimeout(ctx, s.cfg.EmitTimeout)
		defer cancel()
		return s.sink.Emit(emitCtx, seq, message)
	}()
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to deliver notification #%d", seq), err)
		return
	}
	s.log.Debug(fmt.Sprintf("Delivered notification #%d", seq))
}

func (s *notificationScheduler) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *notificationScheduler) snapshot() dto.SchedulerStatus {
	st := dto.SchedulerStatus{
		State:       s.state.String(),
		TimerOption: s.option.String(),
		CadenceMs:   s.cadence.Millis(),
		Sequence:    s.sequence,
	}
	if s.armed {
		if next := s.ticker.NextRun(s.entryID); !next.IsZero() {
			st.NextFireAt = &next
		}
	}
	return st
}
