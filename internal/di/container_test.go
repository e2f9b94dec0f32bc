package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/application/commands"
	"semcache/internal/config"
	"semcache/internal/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	wiki := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wiki, "Paris.md"),
		[]byte("[[Located in::France]] [[Category:City]]"), 0644))

	cfg := config.Default()
	cfg.Wiki.Path = wiki
	cfg.Wiki.DBPath = filepath.Join(t.TempDir(), "index.db")
	cfg.Log.Level = "error"
	return cfg
}

func TestContainer_EndToEnd(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Cache.Backend = backend
			cfg.Cache.BadgerPath = t.TempDir()
			require.NoError(t, cfg.Validate())

			c, err := New(cfg)
			require.NoError(t, err)
			defer c.Close()

			ctx := context.Background()
			_, err = commands.NewSyncCommand(c.Index, c.Cache, c.Logger, false).Execute(ctx)
			require.NoError(t, err)

			req := commands.QueryRequest{
				Conditions: "[[Category:City]]",
				Printouts:  []string{"?Located in"},
				Limit:      10,
				Context:    "France",
			}
			first, err := commands.NewQueryCommand(c.Cache, c.Data, c.Logger, req).Execute(ctx)
			require.NoError(t, err)
			require.Len(t, first.Rows, 1)
			assert.Equal(t, domain.Page("Paris"), first.Rows[0].Entity)
			assert.Equal(t, []domain.Value{domain.EntityValue(domain.Page("France"))}, first.Rows[0].Cells[0])

			second, err := commands.NewQueryCommand(c.Cache, c.Data, c.Logger, req).Execute(ctx)
			require.NoError(t, err)
			assert.True(t, second.FromCache)

			families, err := c.Registry.Gather()
			require.NoError(t, err)
			assert.NotEmpty(t, families)
		})
	}
}
