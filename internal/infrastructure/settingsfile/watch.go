package settingsfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch reports external changes of key until ctx is cancelled. onChange receives
// the new value (ok=false once the key disappears). Changes written through this
// Store and rewrites that keep the value are not reported.
func (s *Store) Watch(ctx context.Context, key string, onChange func(value string, ok bool)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file instead of writing it, so watch the directory.
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch settings directory %s: %w", dir, err)
	}

	s.prime(ctx, key)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			timer.Reset(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Error("Settings watcher error", err)
		case <-timer.C:
			s.reload(ctx, key, onChange)
		}
	}
}

func (s *Store) prime(ctx context.Context, key string) {
	value, ok, err := s.Read(ctx, key)
	if err != nil || !ok {
		return
	}
	s.mu.Lock()
	s.last[key] = value
	s.mu.Unlock()
}

func (s *Store) reload(ctx context.Context, key string, onChange func(value string, ok bool)) {
	value, ok, err := s.Read(ctx, key)
	if err != nil {
		// Partial writes parse as garbage; the next event retries.
		s.log.Warn(fmt.Sprintf("Ignoring unreadable settings file %s: %v", s.path, err))
		return
	}

	s.mu.Lock()
	prev, had := s.last[key]
	changed := had != ok || prev != value
	if ok {
		s.last[key] = value
	} else {
		delete(s.last, key)
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.log.Info(fmt.Sprintf("Settings file changed: %s=%q", key, value))
	onChange(value, ok)
}
