package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	appsync "github.com/nhle/volunteer-board/internal/sync"
	"github.com/nhle/volunteer-board/internal/ui"
	"github.com/nhle/volunteer-board/internal/ui/activitylist"
	"github.com/nhle/volunteer-board/internal/ui/command"
	"github.com/nhle/volunteer-board/internal/ui/detail"
	helpview "github.com/nhle/volunteer-board/internal/ui/help"
	"github.com/nhle/volunteer-board/internal/ui/inbox"
	"github.com/nhle/volunteer-board/internal/ui/settings"
	"github.com/nhle/volunteer-board/internal/ui/verifyform"
)

// unreadCountMsg carries the number of unread notifications to the UI.
type unreadCountMsg struct {
	count int
}

// inboxEventMsg carries an inbox change observed on the notification bus.
type inboxEventMsg struct {
	event notify.Event
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewVerify
	ViewInbox
	ViewHelp
	ViewCommand
	ViewSettings
)

// Options configures the root model.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time

	// Config and ConfigPath enable the settings view when set.
	Config     *model.AppConfig
	ConfigPath string
	Vault      settings.VaultOpener
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and access to the engine.
type Model struct {
	currentView      ViewState
	previousView     ViewState
	layout           ui.Layout
	svc              *lifecycle.Service
	keys             *KeyMap
	activityList     activitylist.Model
	detail           detail.Model
	verifyView       verifyform.Model
	inboxView        inbox.Model
	helpView         helpview.Model
	commandView      command.Model
	settingsView     settings.Model
	hasSettings      bool
	poller           *appsync.Poller
	events           <-chan notify.Event
	stopEvents       context.CancelFunc
	now              func() time.Time
	ready            bool
	unreadCount      int
	authErrorMessage string
	flash            string
}

// New creates a new root application model over svc. The poller drives
// reconciliation passes in the background.
func New(svc *lifecycle.Service, poller *appsync.Poller, opts Options) Model {
	keys := DefaultKeyMap()
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := svc.Inbox().Subscribe(ctx)
	if err != nil {
		events = nil
	}

	var settingsView settings.Model
	if opts.Config != nil {
		settingsView = settings.New(opts.ConfigPath, *opts.Config, opts.Vault, 80, 24)
	}

	return Model{
		currentView:  ViewList,
		svc:          svc,
		keys:         keys,
		activityList: activitylist.New(svc, keys, 80, 24),
		detail:       detail.New(keys, 80, 24),
		verifyView:   verifyform.New(80, 24),
		inboxView:    inbox.New(svc, keys, 80, 24),
		helpView:     helpview.New(keys, 80, 24),
		commandView:  command.New(80, 24),
		settingsView: settingsView,
		hasSettings:  opts.Config != nil,
		poller:       poller,
		events:       events,
		stopEvents:   cancel,
		now:          opts.Now,
		unreadCount:  svc.UnreadCount(),
	}
}

// Init loads the activity list, starts polling and subscribes to the inbox.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.activityList.Init(),
		m.poller.Start(),
		m.waitForInboxEvent(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.activityList.SetSize(contentWidth, contentHeight)
		m.detail.SetSize(contentWidth, contentHeight)
		m.verifyView.SetSize(contentWidth, contentHeight)
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.settingsView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Job == appsync.JobCatalog && msg.Error == nil {
			m.authErrorMessage = ""
		}

		cmds := []tea.Cmd{m.poller.WaitForNextResult(), m.fetchUnreadCount()}
		if msg.Job == appsync.JobCatalog || len(msg.Report.Transitions) > 0 {
			cmds = append(cmds, m.activityList.LoadActivities())
			if m.currentView == ViewDetail {
				cmds = append(cmds, m.loadDetail(m.detail.EventID()))
			}
		}
		return m, tea.Batch(cmds...)

	case inboxEventMsg:
		m.unreadCount = msg.event.Unread
		cmds := []tea.Cmd{m.waitForInboxEvent()}
		if m.currentView == ViewInbox {
			cmds = append(cmds, m.inboxView.Reload())
		}
		return m, tea.Batch(cmds...)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case activitylist.SelectedActivityMsg:
		m.poller.Trigger(appsync.JobReconcile)
		return m, m.openDetail(msg.EventID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		m.poller.Trigger(appsync.JobReconcile)
		return m, m.activityList.LoadActivities()

	case detail.ActionMsg:
		switch msg.Action {
		case detail.ActionApply:
			return m, m.apply(msg.EventID)
		case detail.ActionCancel:
			return m, m.cancel(msg.EventID)
		case detail.ActionVerify:
			title := msg.EventID
			if ev, ok := m.svc.GetActivity(msg.EventID); ok {
				title = ev.Title
			}
			m.currentView = ViewVerify
			return m, m.verifyView.Start(msg.EventID, title)
		}
		return m, nil

	case verifyform.VerifySubmittedMsg:
		m.currentView = ViewDetail
		return m, m.verify(msg.EventID, msg.Mode, msg.Value)

	case verifyform.VerifyCancelMsg:
		m.currentView = ViewDetail
		return m, nil

	case actionResultMsg:
		m.detail.SetMessage(msg.text)
		m.flash = msg.text
		return m, tea.Batch(m.loadDetail(msg.eventID), m.activityList.LoadActivities())

	case inbox.InboxCloseMsg:
		m.currentView = m.previousView
		if m.currentView == ViewInbox {
			m.currentView = ViewList
		}
		m.poller.Trigger(appsync.JobReconcile)
		return m, nil

	case inbox.InboxChangedMsg:
		return m, m.fetchUnreadCount()

	case inbox.OpenTargetMsg:
		if eventID, ok := strings.CutPrefix(msg.NavTarget, "event/"); ok {
			return m, m.openDetail(eventID)
		}
		return m, nil

	case settings.SavedMsg:
		m.flash = "settings saved"
		return m, nil

	case settings.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		if msg.String() != "ctrl+c" &&
			(m.currentView == ViewSettings || (m.currentView == ViewList && m.activityList.Searching())) {
			return m.updateActiveView(msg)
		}

		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewList {
				m.shutdown()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewVerify {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.currentView == ViewVerify {
				break
			}
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case "i":
			if m.currentView == ViewList || m.currentView == ViewDetail {
				m.previousView = m.currentView
				m.currentView = ViewInbox
				return m, m.inboxView.Init()
			}

		case ",":
			if m.currentView == ViewList {
				return m, m.openSettings()
			}

		case "r":
			if m.currentView == ViewList {
				m.poller.RefreshAll()
				m.flash = "refreshing..."
				return m, m.activityList.LoadActivities()
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.activityList, cmd = m.activityList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewVerify:
		m.verifyView, cmd = m.verifyView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader(ui.HeaderTitle(m.unreadCount), m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.statusError())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.activityList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewVerify:
		return m.verifyView.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the background jobs.
func (m Model) syncStatus() string {
	statuses := m.poller.GetStatuses()

	running := 0
	var failing []string
	var last time.Time
	for _, s := range statuses {
		switch s.State {
		case appsync.SyncRunning:
			running++
		case appsync.SyncError:
			failing = append(failing, string(s.Job))
		}
		if s.Job == appsync.JobReconcile {
			last = s.LastRun
		}
	}

	if running > 0 {
		return "syncing"
	}
	if len(failing) > 0 {
		return "⚠ failing: " + strings.Join(failing, ", ")
	}
	if last.IsZero() {
		return "idle"
	}
	return "checked " + last.Format("15:04")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return m.detail.Hints()
	case ViewVerify, ViewSettings:
		return "enter submit | esc cancel"
	case ViewInbox:
		return "enter open | R read all | d delete | C clear | esc back"
	default:
		if summary := m.activityList.FilterSummary(); summary != "" {
			return summary + " | : clear"
		}
		if m.flash != "" {
			return m.flash
		}
		return "q quit | ? help | i inbox | / search | tab region | 1 recruiting | 2 mine | , settings"
	}
}

// statusError returns a problem the user must act on, shown instead of the
// key hints on the board.
func (m Model) statusError() string {
	if m.currentView == ViewList {
		return m.authErrorMessage
	}
	return ""
}

func (m *Model) shutdown() {
	m.poller.Stop()
	m.stopEvents()
}

func (m *Model) openSettings() tea.Cmd {
	if !m.hasSettings {
		m.flash = "settings unavailable"
		return nil
	}
	m.previousView = m.currentView
	m.currentView = ViewSettings
	return m.settingsView.Start()
}

func (m *Model) openDetail(eventID string) tea.Cmd {
	if m.currentView != ViewDetail {
		m.previousView = m.currentView
	}
	m.currentView = ViewDetail
	m.detail.SetLoading(true)
	return m.loadDetail(eventID)
}

// fetchUnreadCount returns a tea.Cmd that reads the cached unread counter.
func (m Model) fetchUnreadCount() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		return unreadCountMsg{count: svc.UnreadCount()}
	}
}

// waitForInboxEvent returns a tea.Cmd that waits for the next inbox change.
func (m Model) waitForInboxEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return inboxEventMsg{event: ev}
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	switch cmd {
	case "refresh", "sync", "reconcile":
		m.poller.RefreshAll()
		return m.activityList.LoadActivities()
	case "quit", "q":
		m.shutdown()
		return tea.Quit
	case "inbox", "notifications":
		m.previousView = ViewList
		m.currentView = ViewInbox
		return m.inboxView.Init()
	case "read all", "mark all read":
		svc := m.svc
		return func() tea.Msg {
			_ = svc.MarkAllRead(context.Background())
			return unreadCountMsg{count: svc.UnreadCount()}
		}
	case "mine", "my enrollments":
		m.currentView = ViewList
		return m.activityList.SetMineOnly(true)
	case "all":
		m.currentView = ViewList
		return m.activityList.SetMineOnly(false)
	case "settings", "config":
		m.currentView = ViewList
		return m.openSettings()
	case "clear filters", "clear":
		m.currentView = ViewList
		return m.activityList.ClearFilters()
	default:
		if eventID, ok := strings.CutPrefix(cmd, "open "); ok {
			return m.openDetail(strings.TrimSpace(eventID))
		}
		return nil
	}
}
