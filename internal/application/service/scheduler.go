package service

import (
	"context"
	"time"

	"notifier/internal/application/dto"

	"github.com/robfig/cron/v3"
)

// NotificationScheduler is one lifetime of the periodic notifier.
type NotificationScheduler interface {
	// Start launches the loop and the initial settings read. It does not block.
	Start(ctx context.Context) error
	// Post hands a reconfiguration message to the loop without blocking.
	Post(msg dto.ReconfigurationMessage)
	// Kick fires a tick immediately and restarts the cadence from it. Ignored unless running.
	Kick()
	// Status returns a snapshot taken on the loop.
	Status(ctx context.Context) (dto.SchedulerStatus, error)
	// Ready is closed once the first configuration (persisted or posted) has been applied.
	Ready() <-chan struct{}
	// Done is closed when the lifetime has ended.
	Done() <-chan struct{}
	// ExitReason reports why the lifetime ended. It is ExitNone until Done is closed.
	ExitReason() ExitReason
	// Stop ends the lifetime and waits for the loop to exit.
	Stop()
}

// ExitReason tells the lifecycle host how a lifetime ended.
type ExitReason int

const (
	ExitNone ExitReason = iota
	// ExitShutdown: the host cancelled the lifetime.
	ExitShutdown
	// ExitDisabled: a reconfiguration resolved to Disabled.
	ExitDisabled
	// ExitCrashed: the loop panicked.
	ExitCrashed
)

func (r ExitReason) String() string {
	switch r {
	case ExitShutdown:
		return "shutdown"
	case ExitDisabled:
		return "disabled"
	case ExitCrashed:
		return "crashed"
	default:
		return "none"
	}
}

// NotificationSink delivers one notification.
type NotificationSink interface {
	Emit(ctx context.Context, sequence int, message string) error
}

// PermissionChecker reports whether notifications may be delivered at all.
type PermissionChecker interface {
	CheckPermission(ctx context.Context) error
}

// TickScheduler registers repeating future callbacks.
type TickScheduler interface {
	Every(interval time.Duration, cmd func()) (cron.EntryID, error)
	RemoveJob(id cron.EntryID)
	NextRun(id cron.EntryID) time.Time
}

// LifecycleController is notified by the scheduler about lifetime decisions.
// Implementations must not block on the scheduler that calls them.
type LifecycleController interface {
	// OnDisableRequested is called once when a reconfiguration resolves to Disabled.
	OnDisableRequested()
	// OnStartupPermissionDenied is called when the permission check refuses a new lifetime.
	OnStartupPermissionDenied(err error)
}

// ReconfigurationDispatcher routes reconfiguration messages to whatever lifetime is current.
type ReconfigurationDispatcher interface {
	Dispatch(msg dto.ReconfigurationMessage)
}

// SchedulerHost is the surface the API layer drives.
type SchedulerHost interface {
	ReconfigurationDispatcher
	Kick() error
	Status(ctx context.Context) (dto.HostStatus, error)
}
