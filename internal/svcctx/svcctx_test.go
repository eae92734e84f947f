package svcctx

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/outline/internal/config"
	"github.com/jackzampolin/outline/internal/jobs"
	"github.com/jackzampolin/outline/internal/outline"
)

func TestExtractors(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ServicesFrom(ctx))
	assert.Nil(t, RunsFrom(ctx))
	assert.Nil(t, LinksFrom(ctx))
	assert.Equal(t, slog.Default(), LoggerFrom(ctx))

	runs := jobs.NewMemoryStore()
	links := outline.NewMemoryStore()
	settings := config.NewMemoryStore()
	ctx = WithServices(ctx, &Services{Runs: runs, Links: links, ConfigStore: settings})

	assert.Same(t, runs, RunsFrom(ctx))
	assert.Same(t, links, LinksFrom(ctx))
	assert.Same(t, settings, ConfigStoreFrom(ctx))
	assert.Nil(t, HostFrom(ctx))
}

func TestServices_Config(t *testing.T) {
	ctx := context.Background()

	t.Run("no manager falls back to defaults", func(t *testing.T) {
		cfg, err := (&Services{}).Config(ctx)
		require.NoError(t, err)
		assert.Equal(t, "books", cfg.Menu.MachineName)
	})

	t.Run("store without manager still overrides", func(t *testing.T) {
		store := config.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "batch.chunk_size", 7, ""))
		cfg, err := (&Services{ConfigStore: store}).Config(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.Batch.ChunkSize)
	})

	t.Run("overrides apply", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, config.WriteDefault(path))
		mgr, err := config.NewManager(path, nil)
		require.NoError(t, err)
		store := config.NewMemoryStore()
		require.NoError(t, store.Set(ctx, "menu.machine_name", "scripture", ""))

		cfg, err := (&Services{ConfigManager: mgr, ConfigStore: store}).Config(ctx)
		require.NoError(t, err)
		assert.Equal(t, "scripture", cfg.Menu.MachineName)
	})
}
