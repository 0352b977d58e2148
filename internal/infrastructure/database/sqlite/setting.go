package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"notifier/internal/domain/entity"
	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *gorm.DB) repository.SettingRepository {
	return &settingRepository{db: db}
}

// Read retrieves a setting value by key.
func (r *settingRepository) Read(ctx context.Context, key string) (string, bool, error) {
	var setting entity.Setting
	if err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: failed to read setting %s: %v", appErrors.ErrDatabaseOperation, key, err)
	}
	return setting.Value, true, nil
}

// Write upserts a setting value.
func (r *settingRepository) Write(ctx context.Context, key string, value string) error {
	setting := entity.Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("%w: failed to write setting %s: %v", appErrors.ErrDatabaseOperation, key, err)
	}
	return nil
}

// Close closes the database connection.
func (r *settingRepository) Close() error {
	return CloseDB(r.db)
}
