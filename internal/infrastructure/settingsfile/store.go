// Package settingsfile implements the settings store on top of a YAML file
// and reports external edits of that file through fsnotify.
package settingsfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"notifier/internal/domain/repository"
	appErrors "notifier/internal/pkg/errors"
	"notifier/internal/pkg/logger"

	"gopkg.in/yaml.v3"
)

// Store is a key/value settings store persisted as a flat YAML mapping.
type Store struct {
	path string
	log  logger.Logger

	mu sync.Mutex
	// last holds the values most recently written or observed, used by Watch
	// to suppress notifications for writes made through this Store.
	last map[string]string
}

var _ repository.SettingRepository = (*Store)(nil)

// New creates a Store backed by the YAML file at path. The file is created on first Write.
func New(path string, log logger.Logger) *Store {
	return &Store{path: path, log: log, last: map[string]string{}}
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Read returns the value stored under key. A missing file is an empty store.
func (s *Store) Read(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

// Write stores value under key and rewrites the file atomically.
func (s *Store) Write(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value

	raw, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("%w: marshal settings yaml: %v", appErrors.ErrSettingsFile, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: create settings directory: %v", appErrors.ErrSettingsFile, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("%w: write settings file: %v", appErrors.ErrSettingsFile, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace settings file: %v", appErrors.ErrSettingsFile, err)
	}
	s.last[key] = value
	return nil
}

// Close is a no-op; the file is not held open.
func (s *Store) Close() error { return nil }

func (s *Store) load() (map[string]string, error) {
	values := map[string]string{}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return values, nil
		}
		return nil, fmt.Errorf("%w: read settings file: %v", appErrors.ErrSettingsFile, err)
	}
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: parse settings yaml: %v", appErrors.ErrSettingsFile, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}
