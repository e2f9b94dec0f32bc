package views

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/application/commands"
	"semcache/internal/application/querycache"
	"semcache/internal/domain"
	"semcache/internal/testutil"
)

func newTestServices() (Services, *testutil.BlobStore) {
	paris := domain.Page("Paris")
	blobs := testutil.NewBlobStore()
	data := testutil.NewDataStore().
		Set(paris, "Located in", domain.EntityValue(domain.Page("France"))).
		SetCategories(paris, domain.CategoryPage("City"))
	cache := querycache.New(testutil.NewEngine(paris), blobs,
		querycache.Options{Enabled: true, NonEmbeddedTTL: time.Minute}, nil)
	return Services{Cache: cache, Data: data, Index: &testutil.Index{}}, blobs
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// runSync runs req and feeds the outcome back into m
func runSync(t *testing.T, m *ResultsModel, req commands.QueryRequest) {
	t.Helper()
	m.Run(req)
	m.Update(m.execute(req)())
	require.False(t, m.loading)
}

var cityQuery = commands.QueryRequest{
	Conditions: "[[Category:City]]",
	Printouts:  []string{"?Located in"},
	Context:    "France",
	Limit:      10,
	Facets:     true,
}

func TestResultsModel_ShowsRowsAndProvenance(t *testing.T) {
	svc, _ := newTestServices()
	m := NewResultsModel(svc)

	runSync(t, m, cityQuery)
	require.Empty(t, m.Message)
	assert.Len(t, m.table.Rows(), 1)
	assert.Equal(t, "Paris", m.table.Rows()[0][0])
	assert.Equal(t, "France", m.table.Rows()[0][1])

	view := m.View()
	assert.Contains(t, view, "computed")
	assert.Contains(t, view, "embedded in France")
	assert.Contains(t, view, "Located in")

	runSync(t, m, cityQuery)
	assert.Contains(t, m.View(), "cached")
}

func TestResultsModel_QueryError(t *testing.T) {
	svc, _ := newTestServices()
	m := NewResultsModel(svc)

	runSync(t, m, commands.QueryRequest{Conditions: "nonsense", Limit: 10})
	assert.True(t, m.MessageErr)
	assert.Nil(t, m.result)
}

func TestResultsModel_InvalidateRerunsQuery(t *testing.T) {
	svc, blobs := newTestServices()
	m := NewResultsModel(svc)
	runSync(t, m, cityQuery)
	require.Equal(t, 2, blobs.Len())

	_, cmd := m.Update(keyPress('x'))
	require.NotNil(t, cmd)
	msg := cmd()
	done, ok := msg.(actionDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)
	assert.True(t, done.rerun)
	assert.Equal(t, 0, blobs.Len())

	_, cmd = m.Update(msg)
	assert.NotNil(t, cmd)
	assert.True(t, m.loading)
}

func TestResultsModel_EditSelectedPage(t *testing.T) {
	svc, _ := newTestServices()
	m := NewResultsModel(svc)
	runSync(t, m, cityQuery)

	_, cmd := m.Update(keyPress('e'))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenEditorMsg{Path: "Paris.md"}, cmd())

	_, cmd = m.Update(keyPress('o'))
	require.NotNil(t, cmd)
	assert.Equal(t, OpenViewerMsg{Path: "Paris.md"}, cmd())
}

func TestResultsModel_SyncPurgesChangedPages(t *testing.T) {
	svc, blobs := newTestServices()
	index := &testutil.Index{Changed: []domain.EntityID{domain.Page("France")}}
	svc.Index = index
	m := NewResultsModel(svc)
	runSync(t, m, cityQuery)

	_, cmd := m.Update(keyPress('s'))
	require.NotNil(t, cmd)
	done := cmd().(actionDoneMsg)
	require.NoError(t, done.err)
	assert.Equal(t, 1, index.IncrementalSyncs)
	assert.Equal(t, 0, blobs.Len())
}

func TestResultsModel_ToggleFacets(t *testing.T) {
	svc, _ := newTestServices()
	m := NewResultsModel(svc)
	runSync(t, m, cityQuery)

	assert.Contains(t, m.View(), "categories")
	m.Update(keyPress('f'))
	assert.False(t, m.showFacets)
	assert.NotContains(t, m.View(), "categories")
}

func TestQueryModel_Request(t *testing.T) {
	m := NewQueryModel()
	m.Fill(commands.QueryRequest{
		Conditions: "[[Category:City]]",
		Printouts:  []string{"?Population", "?Located in|+limit=1"},
		Context:    "France",
		Sort:       "Population",
	})

	req := m.Request()
	assert.Equal(t, "[[Category:City]]", req.Conditions)
	assert.Equal(t, []string{"?Population", "?Located in|+limit=1"}, req.Printouts)
	assert.Equal(t, "France", req.Context)
	assert.Equal(t, "Population", req.Sort)
	assert.Equal(t, domain.DefaultLimit, req.Limit)
	assert.Equal(t, domain.ContextTUI, req.Source)
}

func TestQueryModel_SubmitRequiresConditions(t *testing.T) {
	m := NewQueryModel()

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.MessageErr)

	m.Fill(commands.QueryRequest{Conditions: "[[Category:City]]"})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	msg, ok := cmd().(RunQueryMsg)
	require.True(t, ok)
	assert.Equal(t, "[[Category:City]]", msg.Request.Conditions)
}
