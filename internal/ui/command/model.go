package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Command describes one palette entry.
type Command struct {
	Name string
	Help string
}

// Commands lists what the palette understands, in display order.
var Commands = []Command{
	{Name: "refresh", Help: "reload the catalog and check reminders now"},
	{Name: "inbox", Help: "open notifications"},
	{Name: "read all", Help: "mark every notification as read"},
	{Name: "mine", Help: "show only activities you applied to"},
	{Name: "all", Help: "show every activity"},
	{Name: "clear", Help: "reset search and filters"},
	{Name: "open ", Help: "open an activity by id, e.g. open E1"},
	{Name: "settings", Help: "edit catalog source and reminder settings"},
	{Name: "quit", Help: "exit"},
}

// maxSuggestions caps the list drawn under the input.
const maxSuggestions = 5

// Suggest returns the commands whose name starts with prefix.
func Suggest(prefix string) []Command {
	prefix = strings.ToLower(strings.TrimLeft(prefix, " "))
	var out []Command
	for _, c := range Commands {
		if strings.HasPrefix(c.Name, prefix) || (prefix != "" && strings.HasPrefix(prefix, c.Name) && strings.HasSuffix(c.Name, " ")) {
			out = append(out, c)
		}
	}
	return out
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command, tab completes"
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil

		case "tab":
			if s := Suggest(m.input.Value()); len(s) > 0 && !strings.HasPrefix(m.input.Value(), s[0].Name) {
				m.input.SetValue(s[0].Name)
				m.input.CursorEnd()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette with matching suggestions.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}

	suggestions := Suggest(m.input.Value())
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	for _, c := range suggestions {
		lines = append(lines, "  "+strings.TrimSpace(c.Name)+"  "+theme.DimmedStyle.Render(c.Help))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}
