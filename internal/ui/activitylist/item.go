package activitylist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/theme"
)

// ActivityItem wraps an event and the user's enrollment in it, if any.
type ActivityItem struct {
	Event      model.VolunteerEvent
	Enrollment *model.Enrollment
}

// FilterValue returns the string used for fuzzy filtering.
func (i ActivityItem) FilterValue() string { return i.Event.Title }

// Title returns the event title for the list.
func (i ActivityItem) Title() string { return i.Event.Title }

// Description returns a short summary line for the list.
func (i ActivityItem) Description() string {
	parts := []string{
		i.Event.StartsAt.Format("Jan 02 15:04"),
		i.Event.Region,
		fmt.Sprintf("%d pts", i.Event.Points),
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering activity rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single activity line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(ActivityItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(it, index == m.Index()))
}

func renderLine(it ActivityItem, isSelected bool) string {
	ev := it.Event

	statusBadge := theme.EventStatusStyle(string(ev.Status)).Render(string(ev.Status))

	mine := ""
	if it.Enrollment != nil {
		mine = " " + theme.EnrollmentStyle(string(it.Enrollment.Status)).Render(enrollmentLabel(it.Enrollment.Status))
	}

	when := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(ev.StartsAt.Format("Jan 02 15:04"))

	where := ""
	if ev.Region != "" {
		where = lipgloss.NewStyle().Foreground(theme.ColorBlue).Render(" @" + ev.Region)
	}

	seats := ""
	if ev.MaxParticipants > 0 {
		seats = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(fmt.Sprintf(" %d/%d", ev.CurrentParticipants, ev.MaxParticipants))
	}

	points := lipgloss.NewStyle().
		Foreground(theme.ColorYellow).
		Render(fmt.Sprintf(" +%d", ev.Points))

	line := fmt.Sprintf("%s %s %s%s%s%s%s", when, statusBadge, ev.Title, where, seats, points, mine)

	if !ev.IsRecruiting() && it.Enrollment == nil {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// enrollmentLabel returns a short label for an enrollment status.
func enrollmentLabel(s model.EnrollmentStatus) string {
	switch s {
	case model.EnrollmentApplied:
		return "APPLIED"
	case model.EnrollmentNoShow:
		return "VERIFY"
	case model.EnrollmentCompleted:
		return "DONE"
	default:
		return strings.ToUpper(string(s))
	}
}
