package tui

import (
	"os/exec"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semcache/internal/adapters/tui/views"
	"semcache/internal/application/commands"
	"semcache/internal/application/querycache"
	"semcache/internal/domain"
	"semcache/internal/testutil"
)

type fakeEditor struct {
	opened []string
}

func (e *fakeEditor) OpenFile(path string) error {
	e.opened = append(e.opened, path)
	return nil
}

func (e *fakeEditor) Command(path string) (*exec.Cmd, error) {
	e.opened = append(e.opened, path)
	return exec.Command("true", path), nil
}

func newServices() views.Services {
	paris := domain.Page("Paris")
	data := testutil.NewDataStore().
		Set(paris, "Located in", domain.EntityValue(domain.Page("France"))).
		SetCategories(paris, domain.CategoryPage("City"))
	cache := querycache.New(testutil.NewEngine(paris), testutil.NewBlobStore(),
		querycache.Options{Enabled: true, NonEmbeddedTTL: time.Minute}, nil)
	return views.Services{Cache: cache, Data: data, Index: &testutil.Index{}}
}

func TestNewApp_StartsOnQueryFormWithoutConditions(t *testing.T) {
	app := NewApp(newServices(), nil, commands.QueryRequest{})
	assert.Equal(t, ViewQuery, app.State())

	// leaving the form with nothing to show quits
	_, cmd := app.Update(views.SwitchToResultsMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_RunQueryMsgSwitchesToResults(t *testing.T) {
	app := NewApp(newServices(), nil, commands.QueryRequest{})

	_, cmd := app.Update(views.RunQueryMsg{Request: commands.QueryRequest{
		Conditions: "[[Category:City]]",
		Limit:      10,
	}})
	require.NotNil(t, cmd)
	assert.Equal(t, ViewResults, app.State())

	_, _ = app.Update(views.SwitchToHelpMsg{})
	assert.Equal(t, ViewHelp, app.State())
	_, _ = app.Update(views.SwitchToResultsMsg{})
	assert.Equal(t, ViewResults, app.State())
}

func TestApp_OpenEditor(t *testing.T) {
	ed := &fakeEditor{}
	app := NewApp(newServices(), ed, commands.QueryRequest{Conditions: "[[Category:City]]", Limit: 10})
	assert.Equal(t, ViewResults, app.State())

	_, cmd := app.Update(views.OpenEditorMsg{Path: "/wiki/Paris.md"})
	require.NotNil(t, cmd)
	assert.Equal(t, []string{"/wiki/Paris.md"}, ed.opened)

	// without an editor nothing happens
	app = NewApp(newServices(), nil, commands.QueryRequest{})
	_, cmd = app.Update(views.OpenEditorMsg{Path: "/wiki/Paris.md"})
	assert.Nil(t, cmd)
}

type fakeViewer struct {
	opened []string
}

func (v *fakeViewer) OpenFile(path string) error {
	v.opened = append(v.opened, path)
	return nil
}

func TestApp_OpenViewer(t *testing.T) {
	app := NewApp(newServices(), nil, commands.QueryRequest{})
	_, cmd := app.Update(views.OpenViewerMsg{Path: "/wiki/Paris.md"})
	require.NotNil(t, cmd)
	done, ok := cmd().(editorFinishedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, errNoViewer)

	viewer := &fakeViewer{}
	app = NewApp(newServices(), nil, commands.QueryRequest{}).WithViewer(viewer)
	_, cmd = app.Update(views.OpenViewerMsg{Path: "/wiki/Paris.md"})
	require.NotNil(t, cmd)
	done = cmd().(editorFinishedMsg)
	assert.NoError(t, done.err)
	assert.Equal(t, []string{"/wiki/Paris.md"}, viewer.opened)
}
