package dto

import "time"

// ReconfigurationMessage carries a new timer option to a running scheduler.
// A missing or unknown label means Disabled.
type ReconfigurationMessage struct {
	TimerOption string `json:"timer_option"`
}

// SetTimerOptionRequest is the DTO for changing the persisted timer option.
type SetTimerOptionRequest struct {
	TimerOption string `json:"timer_option"`
}

// TimerSettingResponse describes the persisted timer option.
type TimerSettingResponse struct {
	TimerOption string   `json:"timer_option"`
	CadenceMs   int64    `json:"cadence_ms"`
	Options     []string `json:"options"`
}

// SchedulerStatus is a point-in-time view of one scheduler lifetime.
type SchedulerStatus struct {
	State       string     `json:"state"`
	TimerOption string     `json:"timer_option"`
	CadenceMs   int64      `json:"cadence_ms"`
	Sequence    int        `json:"sequence"`
	NextFireAt  *time.Time `json:"next_fire_at,omitempty"`
}

// HostStatus is the lifecycle host phase plus the current lifetime, if any.
type HostStatus struct {
	Phase     string           `json:"phase"`
	Lifetimes int              `json:"lifetimes"`
	LastError string           `json:"last_error,omitempty"`
	Scheduler *SchedulerStatus `json:"scheduler,omitempty"`
}
