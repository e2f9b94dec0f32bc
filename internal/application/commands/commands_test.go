package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"semcache/internal/application"
	"semcache/internal/application/querycache"
	"semcache/internal/application/unitofwork"
	"semcache/internal/domain"
	"semcache/internal/testutil"
)

// contains checks if s contains substr
func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

type fixture struct {
	engine *testutil.Engine
	blobs  *testutil.BlobStore
	data   *testutil.DataStore
	cache  *querycache.Cache
}

func newFixture() *fixture {
	paris, lyon := domain.Page("Paris"), domain.Page("Lyon")
	city := domain.CategoryPage("City")

	f := &fixture{
		engine: testutil.NewEngine(paris, lyon),
		blobs:  testutil.NewBlobStore(),
		data: testutil.NewDataStore().
			Declare("Has population", domain.KindScalar).
			Set(paris, "Has population", domain.NumberValue(2148000)).
			Set(lyon, "Has population", domain.NumberValue(513000)).
			Set(paris, "Located in", domain.EntityValue(domain.Page("France"))).
			SetCategories(paris, city).
			SetCategories(lyon, city),
	}
	f.cache = querycache.New(f.engine, f.blobs, querycache.Options{
		Enabled:        true,
		NonEmbeddedTTL: time.Hour,
	}, nil)
	return f
}

func TestQueryCommand_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     QueryRequest
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid query",
			req:  QueryRequest{Conditions: "[[Category:City]]", Limit: 10},
		},
		{
			name:    "missing conditions",
			req:     QueryRequest{Limit: 10},
			wantErr: true,
			errMsg:  "conditions is required",
		},
		{
			name:    "limit too large",
			req:     QueryRequest{Conditions: "[[Category:City]]", Limit: MaxLimit + 1},
			wantErr: true,
			errMsg:  "limit must be between",
		},
		{
			name:    "negative offset",
			req:     QueryRequest{Conditions: "[[Category:City]]", Offset: -1},
			wantErr: true,
			errMsg:  "offset must not be negative",
		},
		{
			name:    "bad context entity",
			req:     QueryRequest{Conditions: "[[Category:City]]", Context: "#x"},
			wantErr: true,
			errMsg:  "contextEntity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &QueryCommand{QueryRequest: tt.req}
			err := cmd.Validate()

			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error containing %q, got nil", tt.errMsg)
					return
				}
				if !contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errMsg, err.Error())
				}
				if !errors.Is(err, application.ErrInvalidQuery) {
					t.Errorf("expected a validation error, got %T", err)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestQueryCommand_Execute(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := QueryRequest{
		Conditions: "[[Category:City]]",
		Printouts:  []string{"?Has population", "?Category=Kind", "?Located in.Has capital"},
		Limit:      10,
		Source:     domain.ContextCLI,
		Facets:     true,
		Journal:    true,
	}

	first, err := NewQueryCommand(f.cache, f.data, nil, req).Execute(ctx)
	require.NoError(t, err)

	assert.False(t, first.FromCache)
	assert.Equal(t, []string{"Has population", "Kind", "Located in.Has capital"}, first.Columns)
	require.Len(t, first.Rows, 2)
	assert.Equal(t, domain.Page("Paris"), first.Rows[0].Entity)
	assert.Equal(t, []domain.Value{domain.NumberValue(2148000)}, first.Rows[0].Cells[0])
	assert.Equal(t, []domain.Value{domain.EntityValue(domain.CategoryPage("City"))}, first.Rows[0].Cells[1])
	assert.Empty(t, first.Rows[0].Cells[2])
	assert.Equal(t, 2, first.Facets[domain.FacetCategories]["City"])
	assert.Contains(t, first.Dependencies, domain.Page("France"))
	assert.NotEmpty(t, first.UnitOfWork)

	assert.Equal(t, 1, f.blobs.Saves, "the commit persists the computed result")

	second, err := NewQueryCommand(f.cache, f.data, nil, req).Execute(ctx)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Rows, second.Rows)
	assert.Equal(t, 1, f.engine.Calls())
	assert.Equal(t, int64(1), f.cache.Stats().Counters["hits.nonEmbedded.cli"])
}

func TestQueryCommand_ExecuteErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("bad conditions", func(t *testing.T) {
		f := newFixture()
		_, err := NewQueryCommand(f.cache, f.data, nil, QueryRequest{Conditions: "Paris"}).Execute(ctx)
		assert.ErrorIs(t, err, application.ErrInvalidQuery)
		assert.Zero(t, f.engine.Calls())
	})

	t.Run("bad printout", func(t *testing.T) {
		f := newFixture()
		_, err := NewQueryCommand(f.cache, f.data, nil, QueryRequest{
			Conditions: "[[Category:City]]",
			Printouts:  []string{"?Has population|+limit=x"},
		}).Execute(ctx)
		assert.ErrorIs(t, err, application.ErrInvalidQuery)
	})

	t.Run("engine failure persists nothing", func(t *testing.T) {
		f := newFixture()
		f.engine.Err = testutil.ErrInjected
		_, err := NewQueryCommand(f.cache, f.data, nil, QueryRequest{
			Conditions: "[[Category:City]]",
			Limit:      10,
		}).Execute(ctx)
		assert.ErrorIs(t, err, testutil.ErrInjected)
		assert.Zero(t, f.blobs.Saves)
	})
}

func TestQueryCommand_RollbackLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture()
	cmd := NewQueryCommand(f.cache, f.data, zap.New(core), QueryRequest{})

	uow := unitofwork.New(nil)
	cmd.rollback(uow)
	assert.Zero(t, logs.Len())

	// a second rollback finds the unit already finished
	cmd.rollback(uow)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "rollback failed", entry.Message)
	assert.Equal(t, uow.ID(), entry.ContextMap()["uow"])
}

func TestInvalidateCommand(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req := QueryRequest{Conditions: "[[Category:City]]", Limit: 10, Context: "France"}
	_, err := NewQueryCommand(f.cache, f.data, nil, req).Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.blobs.Len(), "result and anchor are stored")

	t.Run("validation", func(t *testing.T) {
		err := NewInvalidateCommand(f.cache, nil, "").Validate()
		assert.ErrorIs(t, err, application.ErrInvalidQuery)
	})

	res, err := NewInvalidateCommand(f.cache, []string{"france"}, "").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.EntityID{domain.Page("France")}, res.Entities)
	assert.Zero(t, f.blobs.Len())
	assert.Equal(t, int64(1), f.cache.Stats().Counters["deletes.manual"])

	again, err := NewQueryCommand(f.cache, f.data, nil, req).Execute(ctx)
	require.NoError(t, err)
	assert.False(t, again.FromCache)
	assert.Equal(t, 2, f.engine.Calls())
}

func TestSyncCommand(t *testing.T) {
	ctx := context.Background()

	t.Run("incremental sync purges changed pages", func(t *testing.T) {
		f := newFixture()
		_, err := NewQueryCommand(f.cache, f.data, nil,
			QueryRequest{Conditions: "[[Category:City]]", Limit: 10, Context: "France"}).Execute(ctx)
		require.NoError(t, err)

		index := &testutil.Index{Changed: []domain.EntityID{domain.Page("France")}}
		res, err := NewSyncCommand(index, f.cache, nil, false).Execute(ctx)
		require.NoError(t, err)

		assert.False(t, res.Full)
		assert.Equal(t, 1, index.IncrementalSyncs)
		assert.Equal(t, 1, res.Invalidated)
		assert.Zero(t, f.blobs.Len())
		assert.Equal(t, int64(1), f.cache.Stats().Counters["deletes.sync"])
	})

	t.Run("rebuild forces a full sync", func(t *testing.T) {
		index := &testutil.Index{Rebuild: true}
		res, err := NewSyncCommand(index, nil, nil, false).Execute(ctx)
		require.NoError(t, err)
		assert.True(t, res.Full)
		assert.Equal(t, 1, index.FullSyncs)
	})

	t.Run("sync failure", func(t *testing.T) {
		index := &testutil.Index{Err: testutil.ErrInjected}
		_, err := NewSyncCommand(index, nil, nil, true).Execute(ctx)
		assert.ErrorIs(t, err, testutil.ErrInjected)
	})
}

func TestStatsCommand(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := NewQueryCommand(f.cache, f.data, nil, QueryRequest{Conditions: "[[Category:City]]"}).Execute(ctx)
	require.NoError(t, err)

	snap, err := NewStatsCommand(f.cache).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Counters["noCache.byLimit"])
}
