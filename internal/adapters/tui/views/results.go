package views

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"semcache/internal/adapters/render"
	"semcache/internal/adapters/tui/styles"
	"semcache/internal/application/commands"
	"semcache/internal/application/facets"
	"semcache/internal/domain"
)

const (
	maxColumnWidth = 40
	maxFacetLabels = 8
	// lines taken by header, provenance, message and help
	chromeHeight = 10
)

// ResultsKeyMap defines key bindings for the results view
type ResultsKeyMap struct {
	Rerun      key.Binding
	NoCache    key.Binding
	Invalidate key.Binding
	Sync       key.Binding
	Copy       key.Binding
	Edit       key.Binding
	View       key.Binding
	Facets     key.Binding
	Query      key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var ResultsKeys = ResultsKeyMap{
	Rerun: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "re-run"),
	),
	NoCache: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "re-run uncached"),
	),
	Invalidate: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "invalidate"),
	),
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sync"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy id"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit page"),
	),
	View: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in viewer"),
	),
	Facets: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "facets"),
	),
	Query: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "edit query"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

type queryDoneMsg struct {
	result *commands.QueryResult
	err    error
}

type actionDoneMsg struct {
	message string
	err     error
	rerun   bool
}

// ResultsModel shows the rows of the last query with their provenance
type ResultsModel struct {
	ViewState
	svc        Services
	request    commands.QueryRequest
	result     *commands.QueryResult
	table      table.Model
	spinner    spinner.Model
	loading    bool
	showFacets bool
}

// NewResultsModel creates a new results view
func NewResultsModel(svc Services) *ResultsModel {
	t := table.New(table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = styles.TableHeader
	s.Selected = styles.TableSelected
	t.SetStyles(s)

	return &ResultsModel{
		svc:        svc,
		table:      t,
		spinner:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		showFacets: true,
	}
}

// Init initializes the results view
func (m *ResultsModel) Init() tea.Cmd {
	return nil
}

// HasRequest reports whether a query has been run
func (m *ResultsModel) HasRequest() bool {
	return m.request.Conditions != ""
}

// Request returns the last request run
func (m *ResultsModel) Request() commands.QueryRequest {
	return m.request
}

// Run executes req and replaces the table once it completes
func (m *ResultsModel) Run(req commands.QueryRequest) tea.Cmd {
	m.request = req
	m.loading = true
	m.ClearMessage()
	return tea.Batch(m.spinner.Tick, m.execute(req))
}

func (m *ResultsModel) execute(req commands.QueryRequest) tea.Cmd {
	return func() tea.Msg {
		cmd := commands.NewQueryCommand(m.svc.Cache, m.svc.Data, m.svc.Logger, req)
		res, err := cmd.Execute(context.Background())
		return queryDoneMsg{result: res, err: err}
	}
}

// Update handles messages for the results view
func (m *ResultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.table.SetHeight(max(msg.Height-chromeHeight, 3))
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case queryDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.setResult(msg.result)
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.SetMessage(msg.err.Error(), true)
			return m, nil
		}
		m.SetMessage(msg.message, false)
		if msg.rerun && m.HasRequest() {
			return m, m.rerun(false)
		}
		return m, nil

	case tea.KeyMsg:
		if m.loading {
			if key.Matches(msg, ResultsKeys.Quit) {
				return m, tea.Quit
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, ResultsKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, ResultsKeys.Rerun):
			return m, m.rerun(false)

		case key.Matches(msg, ResultsKeys.NoCache):
			return m, m.rerun(true)

		case key.Matches(msg, ResultsKeys.Invalidate):
			return m, m.invalidate()

		case key.Matches(msg, ResultsKeys.Sync):
			return m, m.sync()

		case key.Matches(msg, ResultsKeys.Copy):
			if id, ok := m.selected(); ok {
				if err := clipboard.WriteAll(id.String()); err != nil {
					m.SetMessage("clipboard: "+err.Error(), true)
				} else {
					m.SetMessage("Copied "+id.String(), false)
				}
			}
			return m, nil

		case key.Matches(msg, ResultsKeys.Edit):
			return m, m.openPage(func(path string) tea.Msg { return OpenEditorMsg{Path: path} })

		case key.Matches(msg, ResultsKeys.View):
			return m, m.openPage(func(path string) tea.Msg { return OpenViewerMsg{Path: path} })

		case key.Matches(msg, ResultsKeys.Facets):
			m.showFacets = !m.showFacets
			return m, nil

		case key.Matches(msg, ResultsKeys.Query):
			return m, func() tea.Msg { return SwitchToQueryMsg{} }

		case key.Matches(msg, ResultsKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *ResultsModel) rerun(noCache bool) tea.Cmd {
	if !m.HasRequest() {
		return nil
	}
	req := m.request
	req.NoCache = noCache
	return m.Run(req)
}

// invalidate drops the results embedded in the query's context page, or
// in the selected subject when the query has no context
func (m *ResultsModel) invalidate() tea.Cmd {
	target := m.request.Context
	if target == "" {
		id, ok := m.selected()
		if !ok {
			return nil
		}
		target = id.String()
	}
	return func() tea.Msg {
		res, err := commands.NewInvalidateCommand(m.svc.Cache, []string{target}, commands.ReasonManual).
			Execute(context.Background())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{message: res.Message, rerun: true}
	}
}

func (m *ResultsModel) sync() tea.Cmd {
	if m.svc.Index == nil {
		return nil
	}
	return func() tea.Msg {
		res, err := commands.NewSyncCommand(m.svc.Index, m.svc.Cache, m.svc.Logger, false).
			Execute(context.Background())
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{message: res.Message, rerun: true}
	}
}

// openPage resolves the file of the selected subject's page
func (m *ResultsModel) openPage(open func(path string) tea.Msg) tea.Cmd {
	id, ok := m.selected()
	if !ok || m.svc.Index == nil {
		return nil
	}
	return func() tea.Msg {
		path, err := m.svc.Index.PagePath(id)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return open(path)
	}
}

func (m *ResultsModel) selected() (domain.EntityID, bool) {
	if m.result == nil {
		return domain.EntityID{}, false
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.result.Rows) {
		return domain.EntityID{}, false
	}
	return m.result.Rows[i].Entity, true
}

func (m *ResultsModel) setResult(res *commands.QueryResult) {
	m.result = res

	titles := append([]string{"Subject"}, res.Columns...)
	rows := make([]table.Row, len(res.Rows))
	widths := make([]int, len(titles))
	for i, t := range titles {
		widths[i] = lipgloss.Width(t)
	}
	for i, r := range res.Rows {
		row := make(table.Row, len(titles))
		row[0] = r.Entity.String()
		for j, cell := range r.Cells {
			row[j+1] = render.Cell(cell)
		}
		for j, v := range row {
			widths[j] = max(widths[j], lipgloss.Width(v))
		}
		rows[i] = row
	}

	columns := make([]table.Column, len(titles))
	for i, t := range titles {
		columns[i] = table.Column{Title: t, Width: min(widths[i], maxColumnWidth)}
	}

	// rows must be cleared first, the table renders them against the
	// current columns
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// View renders the results view
func (m *ResultsModel) View() string {
	v := NewViewBuilder().Header("semcache", m.request.Conditions)

	switch {
	case m.loading:
		v.Line(m.spinner.View() + " running query...")
	case m.result == nil:
		v.Line(styles.MutedText.Render("No query yet. Press / to write one."))
	default:
		body := m.table.View()
		if m.showFacets && len(m.result.Facets) > 0 {
			body = lipgloss.JoinHorizontal(lipgloss.Top, body, renderFacets(m.result.Facets))
		}
		v.Line(body).BlankLine().Line(m.summary())
	}

	return v.BlankLine().
		Message(m.Message, m.MessageErr).
		Help(ResultsKeys.Rerun, ResultsKeys.Invalidate, ResultsKeys.Edit, ResultsKeys.Copy,
			ResultsKeys.Facets, ResultsKeys.Query, ResultsKeys.Help, ResultsKeys.Quit).
		String()
}

func (m *ResultsModel) summary() string {
	res := m.result
	s := fmt.Sprintf("%d of %d result(s), %s", len(res.Rows), res.Count, styles.Provenance(res.FromCache))
	if res.HasFurther {
		s += ", more available"
	}
	if m.request.Context != "" {
		s += styles.MutedText.Render("  embedded in " + m.request.Context)
	}
	return s + styles.MutedText.Render("  uow "+shortID(res.UnitOfWork))
}

func renderFacets(counts domain.FacetCountMap) string {
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var b strings.Builder
	for i, t := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.FacetType.Render(t))
		b.WriteString("\n")
		for j, e := range facets.Sorted(counts[domain.FacetType(t)]) {
			if j == maxFacetLabels {
				b.WriteString(styles.FacetCount.Render("  ..."))
				b.WriteString("\n")
				break
			}
			fmt.Fprintf(&b, "  %s %s\n", e.Label, styles.FacetCount.Render(fmt.Sprint(e.Count)))
		}
	}
	return styles.FacetPanel.Render(strings.TrimRight(b.String(), "\n"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
