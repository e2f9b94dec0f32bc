package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/application/querycache"
	"semcache/internal/domain"
	"semcache/internal/testutil"
)

func newServices() (Services, *testutil.BlobStore) {
	paris := domain.Page("Paris")
	blobs := testutil.NewBlobStore()
	data := testutil.NewDataStore().
		Set(paris, "Located in", domain.EntityValue(domain.Page("France"))).
		SetCategories(paris, domain.CategoryPage("City"))

	cache := querycache.New(testutil.NewEngine(paris), blobs,
		querycache.Options{Enabled: true, NonEmbeddedTTL: time.Minute}, nil)
	return Services{Cache: cache, Data: data, Index: &testutil.Index{}}, blobs
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestQueryHandler(t *testing.T) {
	svc, blobs := newServices()
	ctx := context.Background()

	res, err := queryHandler(svc)(ctx, call(map[string]any{
		"conditions": "[[Category:City]]",
		"printouts":  []any{"?Located in"},
		"context":    "France",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Paris")
	assert.Contains(t, text(t, res), "France")
	assert.Equal(t, 2, blobs.Len())

	res, err = queryHandler(svc)(ctx, call(map[string]any{"conditions": "nonsense"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFacetsHandler(t *testing.T) {
	svc, _ := newServices()

	res, err := facetsHandler(svc)(context.Background(), call(map[string]any{
		"conditions": "[[Category:City]]",
		"limit":      float64(10),
	}))
	require.NoError(t, err)
	out := text(t, res)
	assert.Contains(t, out, "Facets over 1 subject(s)")
	assert.Contains(t, out, "Located in")
}

func TestInvalidateAndStatsHandlers(t *testing.T) {
	svc, blobs := newServices()
	ctx := context.Background()

	_, err := queryHandler(svc)(ctx, call(map[string]any{
		"conditions": "[[Category:City]]",
		"context":    "France",
	}))
	require.NoError(t, err)

	res, err := invalidateHandler(svc)(ctx, call(map[string]any{
		"entities": []any{"France"},
		"reason":   "edit",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Zero(t, blobs.Len())

	res, err = statsHandler(svc)(ctx, call(nil))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "deletes.edit")

	res, err = invalidateHandler(svc)(ctx, call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSyncHandler(t *testing.T) {
	svc, _ := newServices()
	index := &testutil.Index{Changed: []domain.EntityID{domain.Page("France")}}
	svc.Index = index

	res, err := syncHandler(svc)(context.Background(), call(map[string]any{"full": true}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "purged 1 subject(s)")
	assert.Equal(t, 1, index.FullSyncs)
}
