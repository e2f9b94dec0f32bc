package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/application/querycache"
	"semcache/internal/domain"
	"semcache/internal/testutil"
)

type fixture struct {
	handler http.Handler
	blobs   *testutil.BlobStore
	index   *testutil.Index
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	paris := domain.Page("Paris")
	blobs := testutil.NewBlobStore()
	data := testutil.NewDataStore().
		Set(paris, "Located in", domain.EntityValue(domain.Page("France"))).
		SetCategories(paris, domain.CategoryPage("City"))
	index := &testutil.Index{Changed: []domain.EntityID{domain.Page("France")}}

	cache := querycache.New(testutil.NewEngine(paris), blobs,
		querycache.Options{Enabled: true, NonEmbeddedTTL: time.Minute}, nil)
	reg := prometheus.NewRegistry()
	require.NoError(t, cache.Statistics().Register(reg))

	return fixture{
		handler: NewRouter(cache, data, index, reg, nil).Setup(),
		blobs:   blobs,
		index:   index,
	}
}

func (f fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec, out := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestQuery(t *testing.T) {
	f := newFixture(t)
	body := `{"conditions":"[[Category:City]]","printouts":["?Located in"],"context":"France"}`

	rec, out := f.do(t, http.MethodPost, "/api/query", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), out["count"])
	assert.Equal(t, false, out["fromCache"])
	assert.Equal(t, []any{"Located in"}, out["columns"])
	rows := out["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "Paris", rows[0].(map[string]any)["entity"])
	assert.Equal(t, 2, f.blobs.Len())

	rec, out = f.do(t, http.MethodPost, "/api/query", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["fromCache"])
}

func TestQuery_Errors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"malformed body", http.MethodPost, "/api/query", "{", http.StatusBadRequest},
		{"missing conditions", http.MethodPost, "/api/query", `{}`, http.StatusBadRequest},
		{"bad conditions", http.MethodPost, "/api/query", `{"conditions":"nonsense"}`, http.StatusBadRequest},
		{"limit too large", http.MethodPost, "/api/query", `{"conditions":"[[Category:City]]","limit":100000}`, http.StatusBadRequest},
		{"non numeric limit", http.MethodGet, "/api/query?conditions=x&limit=abc", "", http.StatusBadRequest},
		{"non numeric offset", http.MethodGet, "/api/query?conditions=x&offset=abc", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, out := f.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestQueryFromURL(t *testing.T) {
	f := newFixture(t)
	q := url.Values{}
	q.Set("conditions", "[[Category:City]]")
	q.Add("printout", "?Located in")
	q.Set("limit", "5")

	rec, out := f.do(t, http.MethodGet, "/api/query?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), out["count"])
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/query", `{"conditions":"[[Category:City]]","context":"France"}`)
	require.Equal(t, 2, f.blobs.Len())

	rec, out := f.do(t, http.MethodPost, "/api/invalidate", `{"entities":["France"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []any{"France"}, out["entities"])
	assert.Equal(t, 0, f.blobs.Len())

	rec, _ = f.do(t, http.MethodPost, "/api/invalidate", `{"entities":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/query", `{"conditions":"[[Category:City]]","context":"France"}`)

	rec, out := f.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), out["misses"])

	rec, _ = f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "semcache_query_cache_events_total")
}

func TestSync(t *testing.T) {
	f := newFixture(t)

	rec, out := f.do(t, http.MethodPost, "/api/sync?full=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["full"])
	assert.Equal(t, float64(1), out["invalidated"])
	assert.Equal(t, 1, f.index.FullSyncs)

	rec, _ = f.do(t, http.MethodPost, "/api/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.index.IncrementalSyncs)
}
