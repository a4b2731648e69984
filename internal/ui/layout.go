package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/theme"
)

// Layout manages the board's frame: a one-line header, the active view and
// a one-line status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the rows left for the active view. It never goes
// below one so tiny terminals still render.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// HeaderTitle returns the board title with the unread badge.
func HeaderTitle(unread int) string {
	if unread <= 0 {
		return "Volunteer Board"
	}
	return fmt.Sprintf("Volunteer Board [%d new]", unread)
}

// RenderHeader renders the top bar: title on the left, poller status on
// the right.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Align(lipgloss.Right).Render(status)
	return l.fill(theme.HeaderStyle, left, right)
}

// RenderStatusBar renders the bottom bar. An error message replaces the
// hints and is drawn in the error style.
func (l Layout) RenderStatusBar(hints, errMsg string) string {
	if errMsg != "" {
		return l.fill(theme.StatusBarStyle, theme.ErrorStyle.Padding(0, 1).Inherit(theme.StatusBarStyle).Render(errMsg), "")
	}
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// RenderWithFrame stacks header, content and status bar. Content is padded
// or cut to ContentHeight so the bars stay pinned.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		l.fitContent(content),
		statusBar,
	)
}

func (l Layout) fitContent(content string) string {
	h := l.ContentHeight()
	lines := strings.Split(content, "\n")
	if len(lines) > h {
		lines = lines[:h]
	}
	for len(lines) < h {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// fill joins left and right with a gap in style's background spanning the
// full width.
func (l Layout) fill(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
