package entity

import "time"

// Setting is one durable key/value pair of the application settings.
type Setting struct {
	Key       string    `gorm:"column:setting_key;primaryKey"`
	Value     string    `gorm:"column:value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the Setting entity.
func (Setting) TableName() string {
	return "settings"
}
