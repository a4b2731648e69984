package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/keys"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/theme"
)

// Action names carried by ActionMsg.
const (
	ActionApply  = "apply"
	ActionCancel = "cancel"
	ActionVerify = "verify"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded activity. Event is nil when the
// activity is no longer in the catalog.
type DetailLoadedMsg struct {
	EventID    string
	Event      *model.VolunteerEvent
	Enrollment *model.Enrollment
}

// ActionMsg signals the parent to run an enrollment action.
type ActionMsg struct {
	Action  string
	EventID string
}

// Model is the activity detail view component.
type Model struct {
	eventID    string
	event      *model.VolunteerEvent
	enrollment *model.Enrollment
	viewport   viewport.Model
	keys       *keys.KeyMap
	message    string
	width      int
	height     int
	loading    bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.SetActivity(msg)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Apply):
			if m.event != nil && m.enrollment == nil {
				return m, m.action(ActionApply)
			}

		case key.Matches(msg, m.keys.Cancel):
			if m.enrollment != nil && m.enrollment.Status == model.EnrollmentApplied {
				return m, m.action(ActionCancel)
			}

		case key.Matches(msg, m.keys.Verify):
			if m.enrollment != nil && m.enrollment.IsVerifiable() {
				return m, m.action(ActionVerify)
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	id := m.eventID
	return func() tea.Msg {
		return ActionMsg{Action: name, EventID: id}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		return m.centered("Loading activity...")
	}

	if m.event == nil && m.enrollment == nil {
		return m.centered("No activity selected")
	}

	return m.viewport.View()
}

func (m Model) centered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) string {
		return fmt.Sprintf("%s %s", metaStyle.Render(fmt.Sprintf("%-14s", label+":")), valStyle.Render(value))
	}

	ev := m.event
	if ev == nil {
		sections = append(sections,
			titleStyle.Render(m.eventID),
			theme.ErrorStyle.Render("This activity is no longer listed in the catalog."),
		)
	} else {
		sections = append(sections, titleStyle.Render(ev.Title))

		badges := []string{theme.EventStatusStyle(string(ev.Status)).Render(string(ev.Status))}
		if m.enrollment != nil {
			badges = append(badges, "  ", theme.EnrollmentStyle(string(m.enrollment.Status)).Render(string(m.enrollment.Status)))
		}
		sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, badges...), "")

		sections = append(sections,
			row("Starts", ev.StartsAt.Format("Mon 2006-01-02 15:04")),
			row("Location", ev.Location),
		)
		if ev.Region != "" {
			sections = append(sections, row("Region", ev.Region))
		}
		if ev.Organizer != "" {
			sections = append(sections, row("Organizer", ev.Organizer))
		}
		sections = append(sections,
			row("Points", fmt.Sprintf("%d", ev.Points)),
			row("Apply by", ev.ApplicationDeadline.Format("2006-01-02 15:04")),
		)
		if ev.MaxParticipants > 0 {
			sections = append(sections, row("Participants", fmt.Sprintf("%d / %d", ev.CurrentParticipants, ev.MaxParticipants)))
		}
	}

	if en := m.enrollment; en != nil {
		sections = append(sections,
			row("Applied", en.AppliedAt.Format("2006-01-02 15:04")),
			row("Cancel by", en.CancellationDeadline.Format("2006-01-02 15:04")),
		)
		if en.VerifiedAt != nil {
			sections = append(sections, row("Verified", en.VerifiedAt.Format("2006-01-02 15:04")))
		}
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))

	if ev != nil {
		sections = append(sections, "", separator, "")
		desc := ev.Description
		if desc == "" {
			desc = lipgloss.NewStyle().
				Foreground(theme.ColorGray).
				Italic(true).
				Render("No description")
		}
		sections = append(sections, desc)

		if ev.PenaltyPolicy != "" {
			sections = append(sections, "",
				lipgloss.NewStyle().Bold(true).Foreground(theme.ColorOrange).Render("Cancellation policy"),
				ev.PenaltyPolicy,
			)
		}
	}

	if m.message != "" {
		sections = append(sections, "", separator, "",
			lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.message))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetActivity updates the activity being displayed and re-renders.
func (m *Model) SetActivity(msg DetailLoadedMsg) {
	m.eventID = msg.EventID
	m.event = msg.Event
	m.enrollment = msg.Enrollment
	m.loading = false
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// SetMessage shows the outcome of the last action below the details.
func (m *Model) SetMessage(text string) {
	m.message = text
	m.viewport.SetContent(m.renderContent())
}

// EventID returns the id of the displayed activity.
func (m Model) EventID() string {
	return m.eventID
}

// Hints returns the key hints valid for the displayed enrollment state.
func (m Model) Hints() string {
	hints := []string{"esc back"}
	switch {
	case m.enrollment == nil && m.event != nil:
		hints = append(hints, "a apply")
	case m.enrollment != nil && m.enrollment.Status == model.EnrollmentApplied:
		hints = append(hints, "x cancel", "v verify")
	case m.enrollment != nil && m.enrollment.IsVerifiable():
		hints = append(hints, "v verify")
	}
	hints = append(hints, "j/k scroll")
	return strings.Join(hints, " | ")
}

// SetLoading sets the loading state and clears the last message.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	m.message = ""
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
