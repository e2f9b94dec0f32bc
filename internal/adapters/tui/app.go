// Package tui is an interactive browser over cached query results.
package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"semcache/internal/adapters/tui/views"
	"semcache/internal/application/commands"
	"semcache/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewResults ViewState = iota
	ViewQuery
	ViewHelp
)

// App is the main TUI application model
type App struct {
	editor ports.EditorOpener
	viewer ports.PageViewer

	state   ViewState
	results *views.ResultsModel
	query   *views.QueryModel
	help    *views.HelpModel
	initial *commands.QueryRequest

	width  int
	height int
}

// NewApp creates a new TUI application. A request with conditions is run
// on start; otherwise the query form opens first.
func NewApp(svc views.Services, ed ports.EditorOpener, initial commands.QueryRequest) *App {
	a := &App{
		editor:  ed,
		state:   ViewQuery,
		results: views.NewResultsModel(svc),
		query:   views.NewQueryModel(),
		help:    views.NewHelpModel(),
	}
	if initial.Conditions != "" {
		a.state = ViewResults
		a.initial = &initial
		a.query.Fill(initial)
	}
	return a
}

// WithViewer enables showing pages in an external viewer
func (a *App) WithViewer(v ports.PageViewer) *App {
	a.viewer = v
	return a
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	if a.initial != nil {
		return a.results.Run(*a.initial)
	}
	return a.query.Init()
}

// State returns the current view
func (a *App) State() ViewState {
	return a.state
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.results.Update(msg)
		a.query.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	case views.SwitchToQueryMsg:
		a.state = ViewQuery
		return a, a.query.Init()

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.SwitchToResultsMsg:
		if !a.results.HasRequest() {
			return a, tea.Quit
		}
		a.state = ViewResults
		return a, nil

	case views.RunQueryMsg:
		a.state = ViewResults
		return a, a.results.Run(msg.Request)

	case views.OpenEditorMsg:
		return a, a.openEditor(msg.Path)

	case views.OpenViewerMsg:
		return a, a.openViewer(msg.Path)

	case editorFinishedMsg:
		if msg.err != nil {
			a.results.SetMessage(msg.err.Error(), true)
		}
		return a, nil
	}

	var cmd tea.Cmd
	switch a.state {
	case ViewResults:
		_, cmd = a.results.Update(msg)
	case ViewQuery:
		_, cmd = a.query.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

type editorFinishedMsg struct{ err error }

var errNoViewer = errors.New("no page viewer configured: enable obsidian in the config")

func (a *App) openEditor(path string) tea.Cmd {
	if a.editor == nil {
		return nil
	}

	cmd, err := a.editor.Command(path)
	if err != nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: err}
		}
	}

	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{err: err}
	})
}

func (a *App) openViewer(path string) tea.Cmd {
	if a.viewer == nil {
		return func() tea.Msg {
			return editorFinishedMsg{err: errNoViewer}
		}
	}
	return func() tea.Msg {
		return editorFinishedMsg{err: a.viewer.OpenFile(path)}
	}
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewQuery:
		return a.query.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.results.View()
	}
}
