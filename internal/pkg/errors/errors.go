package errors

import "errors"

// Custom application errors
var (
	ErrSettingNotFound    = errors.New("setting not found")
	ErrInvalidTimerOption = errors.New("invalid timer option")
	ErrDatabaseOperation  = errors.New("database operation failed")
	ErrSettingsFile       = errors.New("settings file operation failed")
	ErrScheduling         = errors.New("scheduling failed")
	ErrSchedulerStopped   = errors.New("scheduler is stopped")
	ErrDelivery           = errors.New("notification delivery failed")
	ErrRateLimited        = errors.New("notification rate limit exceeded")
	ErrPermissionDenied   = errors.New("notification permission denied")
	ErrLineAPI            = errors.New("LINE API request failed")
	ErrTelegramAPI        = errors.New("telegram API request failed")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInternalServer     = errors.New("internal server error")
)
