package scheduler

import (
	"fmt"
	"sync"
	"time"

	"notifier/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler registers future callbacks on a cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  logger.Logger
	mu   sync.Mutex
}

// NewScheduler creates and starts a cron runner with seconds precision.
func NewScheduler(log logger.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	c.Start()
	log.Info("Cron scheduler started.")
	return &Scheduler{
		cron: c,
		log:  log,
	}
}

// Every registers cmd to run every interval, first at exactly now+interval.
func (s *Scheduler) Every(interval time.Duration, cmd func()) (cron.EntryID, error) {
	if interval < time.Second {
		return 0, fmt.Errorf("interval %s is below the one second minimum", interval)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.cron.Schedule(newIntervalSchedule(time.Now(), interval), cron.FuncJob(cmd))
	s.log.Debug(fmt.Sprintf("Added cron job with ID %d, every %s", id, interval))
	return id, nil
}

// RemoveJob removes a job from the scheduler by its EntryID.
func (s *Scheduler) RemoveJob(id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cron.Remove(id)
	s.log.Debug(fmt.Sprintf("Removed cron job with ID %d", id))
}

// NextRun returns when the entry fires next, or the zero time if it is unknown.
func (s *Scheduler) NextRun(id cron.EntryID) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cron.Entry(id).Next
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info("Cron scheduler stopped.")
	}
}

// intervalSchedule is cron.Every without the rounding to whole seconds: the first
// fire is armedAt+interval and each later one follows the previous planned fire.
// cron calls Next from its run loop only.
type intervalSchedule struct {
	interval time.Duration
	next     time.Time
	started  bool
}

func newIntervalSchedule(armedAt time.Time, interval time.Duration) *intervalSchedule {
	return &intervalSchedule{interval: interval, next: armedAt.Add(interval)}
}

// Next returns the first planned fire after t. Fires missed while the runner was
// busy are skipped, never run late in a burst.
func (s *intervalSchedule) Next(t time.Time) time.Time {
	if s.started {
		s.next = s.next.Add(s.interval)
	}
	s.started = true
	for !s.next.After(t) {
		s.next = s.next.Add(s.interval)
	}
	return s.next
}
