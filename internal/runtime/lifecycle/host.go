package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"notifier/internal/application/dto"
	"notifier/internal/application/service"
	"notifier/internal/domain/constant"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Phase is where the host is in its start/stop cycle.
type Phase string

const (
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseDisabled Phase = "disabled"
	PhaseDenied   Phase = "denied"
	PhaseBackoff  Phase = "backoff"
	PhaseStopped  Phase = "stopped"
)

// Factory builds a fresh scheduler lifetime that reports back to lc.
type Factory func(lc service.LifecycleController) service.NotificationScheduler

// Options tunes restarts and service manager integration.
type Options struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// ExitOnDisable makes Run return once a lifetime is disabled instead of waiting for a new start.
	ExitOnDisable bool
	// Notify reports state to the service manager. Defaults to sd_notify.
	Notify func(state string)
}

// a lifetime that ran this long resets the crash backoff
const healthyRun = 30 * time.Second

// Host owns the scheduler lifetimes of the process: it starts one, restarts it
// after a crash, and starts a new one when a disabled timer is enabled again.
type Host struct {
	factory Factory
	perm    service.PermissionChecker
	opts    Options
	log     logger.Logger

	startReq chan struct{}

	mu         sync.Mutex
	current    service.NotificationScheduler
	lastPosted *dto.ReconfigurationMessage
	pending    *dto.ReconfigurationMessage
	phase      Phase
	lifetimes  int
	lastErr    error
	readySent  bool
}

// NewHost creates a host. Nothing runs until Run.
func NewHost(factory Factory, perm service.PermissionChecker, opts Options, log logger.Logger) *Host {
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = time.Second
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = opts.MinBackoff
	}
	if opts.Notify == nil {
		opts.Notify = sdNotify
	}
	return &Host{
		factory:  factory,
		perm:     perm,
		opts:     opts,
		log:      log.With("component", "lifecycle"),
		startReq: make(chan struct{}, 1),
		phase:    PhaseStarting,
	}
}

func sdNotify(state string) {
	_, _ = daemon.SdNotify(false, state)
}

// Run blocks until ctx is cancelled, or until a lifetime is disabled when ExitOnDisable is set.
func (h *Host) Run(ctx context.Context) error {
	backoff := h.opts.MinBackoff
	defer func() {
		h.setPhase(PhaseStopped, nil)
		h.opts.Notify(daemon.SdNotifyStopping)
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := h.perm.CheckPermission(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			h.OnStartupPermissionDenied(err)
			if !h.waitForStart(ctx) {
				return nil
			}
			continue
		}

		sched, startedAt, err := h.startLifetime(ctx)
		if err != nil {
			return err
		}

		select {
		case <-sched.Done():
		case <-ctx.Done():
			sched.Stop()
		}
		reason := sched.ExitReason()
		restart := h.endLifetime(reason)

		switch reason {
		case service.ExitShutdown:
			if ctx.Err() != nil {
				return nil
			}
		case service.ExitDisabled:
			if restart {
				continue
			}
			if h.opts.ExitOnDisable {
				h.log.Info("Timer disabled, exiting")
				return nil
			}
			h.setPhase(PhaseDisabled, nil)
			if !h.waitForStart(ctx) {
				return nil
			}
		case service.ExitCrashed:
			if time.Since(startedAt) >= healthyRun {
				backoff = h.opts.MinBackoff
			}
			wait := backoff
			h.setPhase(PhaseBackoff, fmt.Errorf("%w: scheduler crashed", appErrors.ErrScheduling))
			h.log.Warn(fmt.Sprintf("Scheduler crashed, restarting in %s", wait))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			backoff *= 2
			if backoff > h.opts.MaxBackoff {
				backoff = h.opts.MaxBackoff
			}
		}
	}
}

func (h *Host) startLifetime(ctx context.Context) (service.NotificationScheduler, time.Time, error) {
	sched := h.factory(h)
	startedAt := time.Now()

	h.mu.Lock()
	select {
	case <-h.startReq:
	default:
	}
	h.lifetimes++
	n := h.lifetimes
	pending := h.pending
	h.pending = nil
	h.lastPosted = pending
	h.current = sched
	h.mu.Unlock()

	if err := sched.Start(ctx); err != nil {
		h.mu.Lock()
		h.current = nil
		h.mu.Unlock()
		return nil, startedAt, err
	}
	if pending != nil {
		sched.Post(*pending)
	}

	h.mu.Lock()
	first := !h.readySent
	h.readySent = true
	h.mu.Unlock()
	if first {
		h.opts.Notify(daemon.SdNotifyReady)
	}
	h.setPhase(PhaseRunning, nil)
	h.log.Info(fmt.Sprintf("Scheduler lifetime %d started", n))
	return sched, startedAt, nil
}

// endLifetime detaches the finished scheduler. A crashed lifetime hands its last message
// to the next one. For a disabled exit it reports whether an enabling message was posted
// after the disabling one was applied.
func (h *Host) endLifetime(reason service.ExitReason) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = nil
	last := h.lastPosted
	h.lastPosted = nil
	switch {
	case last == nil:
	case reason == service.ExitCrashed:
		h.pending = last
	case reason == service.ExitDisabled && constant.DecodeTimerOption(last.TimerOption).Cadence().Enabled():
		h.pending = last
		return true
	}
	return false
}

func (h *Host) waitForStart(ctx context.Context) bool {
	select {
	case <-h.startReq:
		return true
	case <-ctx.Done():
		return false
	}
}

func (h *Host) requestStart() {
	select {
	case h.startReq <- struct{}{}:
	default:
	}
}

// Dispatch posts msg to the current lifetime. Without one, an enabling message
// starts a new lifetime that applies it first.
func (h *Host) Dispatch(msg dto.ReconfigurationMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current != nil {
		m := msg
		h.lastPosted = &m
		h.current.Post(msg)
		return
	}
	if !constant.DecodeTimerOption(msg.TimerOption).Cadence().Enabled() {
		h.pending = nil
		h.log.Debug(fmt.Sprintf("No scheduler running, ignoring %q", msg.TimerOption))
		return
	}
	m := msg
	h.pending = &m
	h.log.Info(fmt.Sprintf("Starting scheduler for %q", msg.TimerOption))
	h.requestStart()
}

// Kick fires the current lifetime immediately.
func (h *Host) Kick() error {
	h.mu.Lock()
	sched := h.current
	h.mu.Unlock()
	if sched == nil {
		return appErrors.ErrSchedulerStopped
	}
	sched.Kick()
	return nil
}

// Status reports the host phase and, while a lifetime exists, its snapshot.
func (h *Host) Status(ctx context.Context) (dto.HostStatus, error) {
	h.mu.Lock()
	st := dto.HostStatus{Phase: string(h.phase), Lifetimes: h.lifetimes}
	if h.lastErr != nil {
		st.LastError = h.lastErr.Error()
	}
	sched := h.current
	h.mu.Unlock()

	if sched != nil {
		ss, err := sched.Status(ctx)
		if err != nil {
			return st, err
		}
		st.Scheduler = &ss
	}
	return st, nil
}

// Phase returns the current phase.
func (h *Host) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// OnDisableRequested is called on the scheduler loop right before it ends.
func (h *Host) OnDisableRequested() {
	h.log.Info("Scheduler disabled by reconfiguration")
}

// OnStartupPermissionDenied records the refusal. A later enabling Dispatch retries.
func (h *Host) OnStartupPermissionDenied(err error) {
	h.log.Warn(fmt.Sprintf("Notification permission denied, scheduler not started: %v", err))
	h.setPhase(PhaseDenied, err)
}

func (h *Host) setPhase(p Phase, err error) {
	h.mu.Lock()
	changed := h.phase != p
	h.phase = p
	h.lastErr = err
	h.mu.Unlock()
	if changed {
		h.opts.Notify("STATUS=" + string(p))
	}
}
