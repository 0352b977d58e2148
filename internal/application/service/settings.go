package service

import (
	"context"

	"notifier/internal/domain/constant"
)

// SettingsService is the write path of the timer setting, used by the settings UI.
type SettingsService interface {
	// GetTimerOption returns the persisted option; an absent setting is Disabled.
	GetTimerOption(ctx context.Context) (constant.TimerOption, error)
	// SetTimerOption validates, persists and dispatches a new option.
	SetTimerOption(ctx context.Context, label string) (constant.TimerOption, error)
}
