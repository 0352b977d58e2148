package service

import (
	"context"
	"fmt"

	"notifier/internal/application/dto"
	"notifier/internal/domain/constant"
	"notifier/internal/domain/repository"
	"notifier/internal/pkg/logger"
)

type settingsService struct {
	settingRepo repository.SettingRepository
	dispatcher  ReconfigurationDispatcher
	log         logger.Logger
}

// NewSettingsService creates a new instance of SettingsService implementation.
func NewSettingsService(settingRepo repository.SettingRepository, dispatcher ReconfigurationDispatcher, log logger.Logger) SettingsService {
	return &settingsService{
		settingRepo: settingRepo,
		dispatcher:  dispatcher,
		log:         log,
	}
}

// GetTimerOption returns the persisted option.
func (s *settingsService) GetTimerOption(ctx context.Context) (constant.TimerOption, error) {
	value, ok, err := s.settingRepo.Read(ctx, constant.TimerOptionKey)
	if err != nil {
		s.log.Error("Failed to read timer option", err)
		return constant.TimerDisabled, fmt.Errorf("read timer option: %w", err)
	}
	if !ok {
		return constant.TimerDisabled, nil
	}
	return constant.DecodeTimerOption(value), nil
}

// SetTimerOption persists the canonical label and then tells the scheduler.
func (s *settingsService) SetTimerOption(ctx context.Context, label string) (constant.TimerOption, error) {
	option, err := constant.ParseTimerOption(label)
	if err != nil {
		return constant.TimerDisabled, err
	}
	if err := s.settingRepo.Write(ctx, constant.TimerOptionKey, option.String()); err != nil {
		s.log.Error(fmt.Sprintf("Failed to persist timer option %s", option), err)
		return constant.TimerDisabled, fmt.Errorf("persist timer option %s: %w", option, err)
	}
	s.dispatcher.Dispatch(dto.ReconfigurationMessage{TimerOption: option.String()})
	s.log.Info(fmt.Sprintf("Timer option set to %s", option))
	return option, nil
}
