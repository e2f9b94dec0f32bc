package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"semcache/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
}

// NewHelpModel creates a new help view model
func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg {
				return SwitchToResultsMsg{}
			}
		}
	}

	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("semcache help"))
	b.WriteString("\n\n")

	b.WriteString(styles.InputLabel.Render("Results"))
	b.WriteString("\n")
	b.WriteString(helpLine("j / k / ↑ / ↓", "Move up/down"))
	b.WriteString(helpLine("r", "Re-run the query (served from cache when possible)"))
	b.WriteString(helpLine("R", "Re-run bypassing the cache"))
	b.WriteString(helpLine("x", "Invalidate the context page, or the selected subject"))
	b.WriteString(helpLine("s", "Sync the wiki index and purge changed pages"))
	b.WriteString(helpLine("y", "Copy the selected subject id"))
	b.WriteString(helpLine("e", "Open the selected subject's page in $EDITOR"))
	b.WriteString(helpLine("o", "Show the selected subject's page in Obsidian"))
	b.WriteString(helpLine("f", "Toggle the facets panel"))
	b.WriteString(helpLine("/", "Edit the query"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Query form"))
	b.WriteString("\n")
	b.WriteString(helpLine("tab / shift+tab", "Next/previous field"))
	b.WriteString(helpLine("enter", "Run"))
	b.WriteString(helpLine("esc", "Back to results"))
	b.WriteString("\n")

	b.WriteString(styles.InputLabel.Render("Ask syntax"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  [[Category:City]] [[Population::>100000]]   both must hold"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  [[Located in::France||Germany]]             either value"))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("  ?Population#-=Inhabitants|+limit=1          printout"))
	b.WriteString("\n\n")

	b.WriteString(styles.HelpDesc.Render("Press "))
	b.WriteString(styles.HelpKey.Render("esc"))
	b.WriteString(styles.HelpDesc.Render(" or "))
	b.WriteString(styles.HelpKey.Render("?"))
	b.WriteString(styles.HelpDesc.Render(" to close"))

	return styles.App.Render(b.String())
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc) + "\n"
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}
