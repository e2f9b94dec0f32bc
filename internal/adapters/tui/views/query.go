package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"semcache/internal/adapters/tui/styles"
	"semcache/internal/application/commands"
	"semcache/internal/domain"
)

// printoutSeparator splits the printouts field; "|" already separates
// printout options
const printoutSeparator = ";"

// Form field indexes
const (
	fieldConditions = iota
	fieldPrintouts
	fieldContext
	fieldSort
)

// QueryKeyMap defines key bindings for the query form
type QueryKeyMap struct {
	Submit key.Binding
	Next   key.Binding
	Prev   key.Binding
	Cancel key.Binding
	Quit   key.Binding
}

var QueryKeys = QueryKeyMap{
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back to results"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

type queryField struct {
	label string
	input textinput.Model
}

// QueryModel is the form an ask query is typed into
type QueryModel struct {
	ViewState
	fields  []queryField
	focused int
}

// NewQueryModel creates a new query form
func NewQueryModel() *QueryModel {
	m := &QueryModel{
		fields: []queryField{
			newQueryField("Conditions", "[[Category:City]] [[Located in::France]]", 0),
			newQueryField("Printouts (separated by ;)", "?Population; ?Located in#-=Country", 0),
			newQueryField("Context page", "France", 255),
			newQueryField("Sort", "Population", 255),
		},
	}
	m.fields[fieldConditions].input.Focus()
	return m
}

func newQueryField(label, placeholder string, charLimit int) queryField {
	input := textinput.New()
	input.Placeholder = placeholder
	if charLimit > 0 {
		input.CharLimit = charLimit
	}
	return queryField{label: label, input: input}
}

// Init initializes the query form
func (m *QueryModel) Init() tea.Cmd {
	return textinput.Blink
}

// Fill copies req into the form fields
func (m *QueryModel) Fill(req commands.QueryRequest) {
	m.fields[fieldConditions].input.SetValue(req.Conditions)
	m.fields[fieldPrintouts].input.SetValue(strings.Join(req.Printouts, printoutSeparator+" "))
	m.fields[fieldContext].input.SetValue(req.Context)
	m.fields[fieldSort].input.SetValue(req.Sort)
}

// Request builds a query request from the form
func (m *QueryModel) Request() commands.QueryRequest {
	req := commands.QueryRequest{
		Conditions: m.value(fieldConditions),
		Context:    m.value(fieldContext),
		Sort:       m.value(fieldSort),
		Limit:      domain.DefaultLimit,
		Source:     domain.ContextTUI,
		Facets:     true,
	}
	for _, p := range strings.Split(m.value(fieldPrintouts), printoutSeparator) {
		if p = strings.TrimSpace(p); p != "" {
			req.Printouts = append(req.Printouts, p)
		}
	}
	return req
}

func (m *QueryModel) value(i int) string {
	return strings.TrimSpace(m.fields[i].input.Value())
}

func (m *QueryModel) focus(i int) {
	m.fields[m.focused].input.Blur()
	m.focused = (i + len(m.fields)) % len(m.fields)
	m.fields[m.focused].input.Focus()
}

// Update handles messages for the query form
func (m *QueryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, QueryKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, QueryKeys.Cancel):
			return m, func() tea.Msg { return SwitchToResultsMsg{} }

		case key.Matches(msg, QueryKeys.Next):
			m.focus(m.focused + 1)
			return m, nil

		case key.Matches(msg, QueryKeys.Prev):
			m.focus(m.focused - 1)
			return m, nil

		case key.Matches(msg, QueryKeys.Submit):
			if m.value(fieldConditions) == "" {
				m.SetMessage("conditions are required", true)
				m.focus(fieldConditions)
				return m, nil
			}
			m.ClearMessage()
			req := m.Request()
			return m, func() tea.Msg { return RunQueryMsg{Request: req} }
		}
	}

	var cmd tea.Cmd
	m.fields[m.focused].input, cmd = m.fields[m.focused].input.Update(msg)
	return m, cmd
}

// View renders the query form
func (m *QueryModel) View() string {
	v := NewViewBuilder().Header("semcache", "Ask query")
	for i, f := range m.fields {
		v.Line(styles.InputLabel.Render(f.label))
		if i == m.focused {
			v.Line(styles.InputFocused.Render(f.input.View()))
		} else {
			v.Line(styles.InputField.Render(f.input.View()))
		}
	}
	return v.BlankLine().
		Message(m.Message, m.MessageErr).
		Help(QueryKeys.Submit, QueryKeys.Next, QueryKeys.Cancel, QueryKeys.Quit).
		String()
}
