package activitylist

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/keys"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/theme"
)

// Lister is the read side of the engine the list needs.
type Lister interface {
	ListActivities(filter catalog.Filter) []model.VolunteerEvent
	MyEnrollments(ctx context.Context, status *model.EnrollmentStatus) ([]model.Enrollment, error)
	Regions() []string
}

// ActivitiesLoadedMsg is sent when activities have been loaded.
type ActivitiesLoadedMsg struct {
	Items   []ActivityItem
	Regions []string
}

// SelectedActivityMsg is sent when a user opens an activity.
type SelectedActivityMsg struct {
	EventID string
}

// Model is the activity list view component.
type Model struct {
	list        list.Model
	svc         Lister
	keys        *keys.KeyMap
	filter      catalog.Filter
	regions     []string
	regionIdx   int
	mineOnly    bool
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new activity list model.
func New(svc Lister, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Activities"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search activities..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		svc:         svc,
		keys:        k,
		regionIdx:   -1,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial activities.
func (m Model) Init() tea.Cmd {
	return m.LoadActivities()
}

// Update handles messages for the activity list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ActivitiesLoadedMsg:
		m.regions = msg.Regions
		if m.regionIdx >= len(m.regions) {
			m.regionIdx = -1
			m.filter.Region = ""
		}
		items := make([]list.Item, 0, len(msg.Items))
		for _, it := range msg.Items {
			items = append(items, it)
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Query = strings.TrimSpace(m.searchInput.Value())
		return m, m.LoadActivities()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = ""
		return m, m.LoadActivities()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(ActivityItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedActivityMsg{EventID: item.Event.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleRegion):
		m.cycleRegion()
		return m, m.LoadActivities()

	case key.Matches(msg, m.keys.RecruitingOnly):
		m.filter.RecruitingOnly = !m.filter.RecruitingOnly
		return m, m.LoadActivities()

	case key.Matches(msg, m.keys.Mine):
		m.mineOnly = !m.mineOnly
		return m, m.LoadActivities()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// cycleRegion steps through "all" followed by each known region.
func (m *Model) cycleRegion() {
	if len(m.regions) == 0 {
		m.regionIdx = -1
		m.filter.Region = ""
		return
	}
	m.regionIdx++
	if m.regionIdx >= len(m.regions) {
		m.regionIdx = -1
		m.filter.Region = ""
		return
	}
	m.filter.Region = m.regions[m.regionIdx]
}

// SelectedItem returns the highlighted activity.
func (m Model) SelectedItem() (ActivityItem, bool) {
	it, ok := m.list.SelectedItem().(ActivityItem)
	return it, ok
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// FilterSummary describes the active filters, or "" when none are set.
func (m Model) FilterSummary() string {
	var parts []string
	if m.filter.Query != "" {
		parts = append(parts, "search: "+m.filter.Query)
	}
	if m.filter.Region != "" {
		parts = append(parts, "region: "+m.filter.Region)
	}
	if m.filter.RecruitingOnly {
		parts = append(parts, "recruiting")
	}
	if m.mineOnly {
		parts = append(parts, "mine")
	}
	return strings.Join(parts, " | ")
}

// ClearFilters resets every filter and reloads.
func (m *Model) ClearFilters() tea.Cmd {
	m.filter = catalog.Filter{}
	m.regionIdx = -1
	m.mineOnly = false
	m.searchInput.Reset()
	return m.LoadActivities()
}

// SetMineOnly restricts the list to activities the user is enrolled in.
func (m *Model) SetMineOnly(on bool) tea.Cmd {
	m.mineOnly = on
	return m.LoadActivities()
}

// View renders the activity list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.FilterSummary() != "" {
		return style.Render("No matching activities.\nPress : then 'clear' to reset filters.")
	}

	return style.Render(
		"No activities found.\n\n" +
			"Check the catalog path in your config, then press r to refresh.",
	)
}

// LoadActivities returns a tea.Cmd that reads the catalog with the current
// filter and joins in the user's enrollments.
func (m Model) LoadActivities() tea.Cmd {
	filter := m.filter
	mineOnly := m.mineOnly
	svc := m.svc
	return func() tea.Msg {
		events := svc.ListActivities(filter)
		enrollments, err := svc.MyEnrollments(context.Background(), nil)
		if err != nil {
			enrollments = nil
		}
		byEvent := make(map[string]model.Enrollment, len(enrollments))
		for _, en := range enrollments {
			byEvent[en.EventID] = en
		}

		items := make([]ActivityItem, 0, len(events))
		for _, ev := range events {
			it := ActivityItem{Event: ev}
			if en, ok := byEvent[ev.ID]; ok {
				it.Enrollment = &en
			}
			if mineOnly && it.Enrollment == nil {
				continue
			}
			items = append(items, it)
		}
		return ActivitiesLoadedMsg{Items: items, Regions: svc.Regions()}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
