package repository

import "context"

// SettingReader is the read side of the settings store.
type SettingReader interface {
	// Read returns the stored value for key. ok is false when the key is absent.
	Read(ctx context.Context, key string) (value string, ok bool, err error)
}

// SettingRepository defines the interface for durable key/value settings.
type SettingRepository interface {
	SettingReader
	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key string, value string) error
	// Close releases the underlying storage.
	Close() error
}
