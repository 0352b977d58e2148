package settingsfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"notifier/internal/domain/constant"
	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMissingFileIsEmpty(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "settings.yaml"), logger.Nop())

	_, ok, err := s.Read(context.Background(), constant.TimerOptionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStoreWriteKeepsOtherKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("theme: dark\n"), 0o644))

	s := New(path, logger.Nop())
	require.NoError(t, s.Write(ctx, constant.TimerOptionKey, "30 min"))

	value, ok, err := s.Read(ctx, constant.TimerOptionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "30 min", value)

	theme, ok, err := s.Read(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", theme)
}

func TestStoreRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timer_option_key: [unclosed\n"), 0o644))

	_, _, err := New(path, logger.Nop()).Read(context.Background(), constant.TimerOptionKey)
	assert.Error(t, err)
}

func TestWatchReportsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := New(path, logger.Nop())
	require.NoError(t, s.Write(context.Background(), constant.TimerOptionKey, "10s"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, constant.TimerOptionKey, func(value string, ok bool) {
			changes <- value
		})
	}()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("timer_option_key: 60min\n"), 0o644))

	select {
	case v := <-changes:
		assert.Equal(t, "60min", v)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	// A write through the store itself is not echoed back.
	require.NoError(t, s.Write(context.Background(), constant.TimerOptionKey, "30s"))
	select {
	case v := <-changes:
		t.Fatalf("unexpected change %q for own write", v)
	case <-time.After(2 * watchDebounce):
	}

	cancel()
	require.NoError(t, <-done)
}
