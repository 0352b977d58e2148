package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"notifier/internal/domain/constant"
	"notifier/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingRepositoryReadWrite(t *testing.T) {
	ctx := context.Background()
	db, err := NewDB(filepath.Join(t.TempDir(), "settings.db"), logger.Nop())
	require.NoError(t, err)
	repo := NewSettingRepository(db)
	t.Cleanup(func() { _ = repo.Close() })

	_, ok, err := repo.Read(ctx, constant.TimerOptionKey)
	require.NoError(t, err)
	assert.False(t, ok, "absent key must report ok=false")

	require.NoError(t, repo.Write(ctx, constant.TimerOptionKey, "30s"))
	value, ok, err := repo.Read(ctx, constant.TimerOptionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "30s", value)

	require.NoError(t, repo.Write(ctx, constant.TimerOptionKey, "60min"))
	value, _, err = repo.Read(ctx, constant.TimerOptionKey)
	require.NoError(t, err)
	assert.Equal(t, "60min", value)
}

func TestSettingRepositorySurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "settings.db")

	db, err := NewDB(path, logger.Nop())
	require.NoError(t, err)
	repo := NewSettingRepository(db)
	require.NoError(t, repo.Write(ctx, constant.TimerOptionKey, "10s"))
	require.NoError(t, repo.Close())

	db, err = NewDB(path, logger.Nop())
	require.NoError(t, err)
	repo = NewSettingRepository(db)
	t.Cleanup(func() { _ = repo.Close() })

	value, ok, err := repo.Read(ctx, constant.TimerOptionKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10s", value)
}
