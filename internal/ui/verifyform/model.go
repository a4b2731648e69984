package verifyform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/theme"
)

// Verification modes offered by the form.
const (
	ModeCode = "code"
	ModeScan = "scan"
)

// VerifySubmittedMsg is dispatched when the user submits a code or payload.
type VerifySubmittedMsg struct {
	EventID string
	Mode    string
	Value   string
}

// VerifyCancelMsg is dispatched when the user cancels the form.
type VerifyCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	mode  string
	value string
}

// Model is the Bubble Tea model for the attendance verification form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	eventID string
	title   string
	width   int
	height  int
}

// New creates a new verification form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{mode: ModeCode},
		width:  width,
		height: height,
	}
}

// Start initializes the form for eventID.
func (m *Model) Start(eventID, title string) tea.Cmd {
	m.eventID = eventID
	m.title = title
	m.fb.mode = ModeCode
	m.fb.value = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return VerifyCancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	heading := "Verify attendance"
	if m.title != "" {
		heading += ": " + m.title
	}

	content := titleStyle.Render(heading) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Method").
				Options(
					huh.NewOption("Enter the code from the organizer", ModeCode),
					huh.NewOption("Paste scanned QR text", ModeScan),
				).
				Value(&m.fb.mode),
		),
		huh.NewGroup(
			huh.NewInput().
				TitleFunc(func() string {
					if m.fb.mode == ModeScan {
						return "Scanned text"
					}
					return "Verification code"
				}, &m.fb.mode).
				Placeholder("Case-sensitive").
				Value(&m.fb.value).
				Validate(validateRequired),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	msg := VerifySubmittedMsg{
		EventID: m.eventID,
		Mode:    m.fb.mode,
		Value:   m.fb.value,
	}
	return func() tea.Msg { return msg }
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

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("a code is required")
	}
	return nil
}
