package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/keys"
	"github.com/nhle/volunteer-board/internal/theme"
	"github.com/nhle/volunteer-board/internal/ui/command"
)

// section is one titled group of bindings.
type section struct {
	title    string
	bindings []key.Binding
}

// reminderNotes explains when the inbox receives reminders.
var reminderNotes = []string{
	"applied         right after you apply",
	"cancel_deadline the day before you can no longer cancel",
	"start_1day      the day before the activity",
	"start_today     on the activity day",
	"ended_verify    after the activity if attendance is unverified",
	"verified        when attendance is recorded and points credited",
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) sections() []section {
	k := m.keys
	return []section{
		{"Board", []key.Binding{k.Up, k.Down, k.Select, k.Search, k.CycleRegion, k.RecruitingOnly, k.Mine, k.Refresh, k.Settings}},
		{"Activity", []key.Binding{k.Apply, k.Cancel, k.Verify, k.Back}},
		{"Inbox", []key.Binding{k.Inbox, k.Select, k.MarkAllRead, k.Delete, k.ClearAll}},
		{"General", []key.Binding{k.Command, k.Help, k.Quit}},
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	headingStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	var columns []string
	for _, s := range m.sections() {
		columns = append(columns, lipgloss.NewStyle().MarginRight(4).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				headingStyle.Render(s.title),
				m.help.FullHelpView([][]key.Binding{s.bindings}),
			),
		))
	}

	var cmds []string
	for _, c := range command.Commands {
		cmds = append(cmds, strings.TrimSpace(c.Name))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		"",
		headingStyle.Render("Reminders"),
		theme.DimmedStyle.Render(strings.Join(reminderNotes, "\n")),
		"",
		headingStyle.Render("Commands"),
		theme.DimmedStyle.Render(strings.Join(cmds, ", ")),
	)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
