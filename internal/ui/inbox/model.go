package inbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/keys"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	"github.com/nhle/volunteer-board/internal/theme"
)

// Inbox is the notification surface the view drives.
type Inbox interface {
	ListNotifications(ctx context.Context, filter notify.Filter) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	DeleteNotification(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// InboxCloseMsg signals the parent to close the inbox view.
type InboxCloseMsg struct{}

// InboxChangedMsg signals that notifications were modified.
type InboxChangedMsg struct{}

// OpenTargetMsg asks the parent to open a notification's view reference.
type OpenTargetMsg struct {
	NavTarget string
}

type inboxMode int

const (
	modeList inboxMode = iota
	modeConfirmClear
)

type formBindings struct {
	confirm bool
}

type notificationsLoadedMsg struct {
	notifications []model.Notification
	err           error
}

type changedMsg struct {
	status string
	err    error
}

// Model is the Bubble Tea model for the notification inbox.
type Model struct {
	mode          inboxMode
	inbox         Inbox
	keys          *keys.KeyMap
	notifications []model.Notification
	selectedIdx   int
	unreadOnly    bool
	confirmForm   *huh.Form
	fb            *formBindings
	statusMsg     string
	width         int
	height        int
}

// New creates a new inbox model.
func New(in Inbox, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		inbox: in,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads notifications.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case notificationsLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		}
		m.notifications = msg.notifications
		if m.selectedIdx >= len(m.notifications) {
			m.selectedIdx = max(len(m.notifications)-1, 0)
		}
		return m, nil

	case changedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = msg.status
		}
		m.mode = modeList
		return m, tea.Batch(m.Reload(), func() tea.Msg { return InboxChangedMsg{} })

	case tea.KeyMsg:
		if m.mode == modeConfirmClear {
			return m.updateConfirm(msg)
		}
		return m.handleListKey(msg)
	}

	if m.mode == modeConfirmClear {
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return InboxCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.notifications) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.notifications)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.notifications) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.notifications) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		cmds := []tea.Cmd{func() tea.Msg { return OpenTargetMsg{NavTarget: n.NavTarget} }}
		if !n.Read {
			cmds = append(cmds, m.markRead(n.ID))
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead()

	case key.Matches(msg, m.keys.Delete):
		n, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, m.delete(n.ID)

	case key.Matches(msg, m.keys.ClearAll):
		if len(m.notifications) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmClear
		return m, m.confirmForm.Init()

	case msg.String() == "u":
		m.unreadOnly = !m.unreadOnly
		m.selectedIdx = 0
		return m, m.Reload()
	}
	return m, nil
}

func (m Model) selected() (model.Notification, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.notifications) {
		return model.Notification{}, false
	}
	return m.notifications[m.selectedIdx], true
}

func (m Model) buildConfirmForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Clear all notifications?").
				Description("Every notification will be removed. Reminders already sent are not sent again.").
				Affirmative("Yes, clear").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.clearAll()
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

// View renders the inbox.
func (m Model) View() string {
	if m.mode == modeConfirmClear && m.confirmForm != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.confirmForm.View())
	}
	return m.viewList()
}

func (m Model) viewList() string {
	var b strings.Builder

	title := "Inbox"
	if m.unreadOnly {
		title += " (unread)"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.notifications) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No notifications."))
	} else {
		for i, n := range m.notifications {
			marker := "  "
			if !n.Read {
				marker = "● "
			}
			kind := theme.KindStyle(string(n.Kind)).Render(kindLabel(n.Kind))
			when := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(n.CreatedAt.Format("Jan 02 15:04"))
			label := fmt.Sprintf("%s%s %s  %s", marker, kind, n.Title, when)
			if n.Read {
				label = theme.DimmedStyle.Render(label)
			} else {
				label = theme.UnreadStyle.Render(label)
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
				if n.Body != "" {
					b.WriteString("\n")
					b.WriteString(theme.HelpStyle.PaddingLeft(4).Render(n.Body))
				}
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"enter open | R read all | d delete | C clear | u unread only | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// kindLabel returns a short tag for a notification kind.
func kindLabel(k model.NotificationKind) string {
	switch k {
	case model.KindApplied:
		return "[applied]"
	case model.KindCancelDeadline:
		return "[deadline]"
	case model.KindStartOneDay:
		return "[tomorrow]"
	case model.KindStartToday:
		return "[today]"
	case model.KindEndedVerify:
		return "[verify]"
	case model.KindVerified:
		return "[verified]"
	default:
		return "[" + string(k) + "]"
	}
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// Reload returns a command that re-reads the inbox.
func (m Model) Reload() tea.Cmd {
	in := m.inbox
	filter := notify.Filter{}
	if m.unreadOnly {
		unread := false
		filter.Read = &unread
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		list, err := in.ListNotifications(ctx, filter)
		return notificationsLoadedMsg{notifications: list, err: err}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	in := m.inbox
	return func() tea.Msg {
		return changedMsg{err: in.MarkRead(context.Background(), id)}
	}
}

func (m Model) markAllRead() tea.Cmd {
	in := m.inbox
	return func() tea.Msg {
		return changedMsg{status: "All marked read", err: in.MarkAllRead(context.Background())}
	}
}

func (m Model) delete(id string) tea.Cmd {
	in := m.inbox
	return func() tea.Msg {
		return changedMsg{status: "Notification deleted", err: in.DeleteNotification(context.Background(), id)}
	}
}

func (m Model) clearAll() tea.Cmd {
	in := m.inbox
	return func() tea.Msg {
		return changedMsg{status: "Inbox cleared", err: in.ClearAll(context.Background())}
	}
}
