package constant

// SchedulerState defines the states of a notification scheduler lifetime.
type SchedulerState int

const (
	// StateStopped is both the state before the persisted option is loaded and the terminal state.
	StateStopped SchedulerState = iota
	// StateIdle means the option is loaded and the cadence is disabled.
	StateIdle
	// StateRunning means a tick is armed.
	StateRunning
)

func (s SchedulerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "stopped"
	}
}
