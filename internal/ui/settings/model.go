// Package settings edits the catalog source and reminder settings from
// inside the terminal UI.
package settings

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/credential"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/theme"
)

// testLoadTimeout bounds the test load of a newly configured source.
const testLoadTimeout = 30 * time.Second

// Mode is the current state of the settings view.
type Mode int

const (
	ModeForm Mode = iota
	ModeSaving
	ModeResult
)

// CloseMsg is dispatched when the user leaves the settings view.
type CloseMsg struct{}

// SavedMsg is dispatched after the config file was written.
type SavedMsg struct {
	Config model.AppConfig
}

// resultMsg reports the outcome of saving and probing.
type resultMsg struct {
	cfg    model.AppConfig
	saved  bool
	events int
	err    error
}

// VaultOpener opens the credential store holding the feed token.
type VaultOpener func() (*credential.Vault, error)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	source          string
	path            string
	feedURL         string
	token           string
	timezone        string
	pollInterval    string
	refreshInterval string
	enforceCapacity bool
}

// Model is the Bubble Tea model for the settings view.
type Model struct {
	mode       Mode
	form       *huh.Form
	fb         *formBindings
	cfg        model.AppConfig
	configPath string
	openVault  VaultOpener
	spinner    spinner.Model

	saved  bool
	events int
	err    error

	width, height int
}

// New creates a settings view editing cfg, saved back to configPath.
func New(configPath string, cfg model.AppConfig, openVault VaultOpener, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		fb:         &formBindings{},
		cfg:        cfg,
		configPath: configPath,
		openVault:  openVault,
		spinner:    sp,
		width:      width,
		height:     height,
	}
}

// Start fills the form from the current config.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{
		source:          m.cfg.Catalog.Source,
		path:            m.cfg.Catalog.Path,
		feedURL:         m.cfg.Catalog.FeedURL,
		timezone:        m.cfg.Lifecycle.Timezone,
		pollInterval:    strconv.Itoa(m.cfg.Lifecycle.PollIntervalSec),
		refreshInterval: strconv.Itoa(m.cfg.Catalog.RefreshIntervalSec),
		enforceCapacity: m.cfg.Lifecycle.EnforceCapacity,
	}
	if m.fb.source == "" {
		m.fb.source = model.CatalogSourceFile
	}
	m.mode = ModeForm
	m.saved = false
	m.err = nil
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.mode = ModeResult
		m.saved = msg.saved
		m.events = msg.events
		m.err = msg.err
		if !msg.saved {
			return m, nil
		}
		m.cfg = msg.cfg
		saved := SavedMsg{Config: msg.cfg}
		return m, func() tea.Msg { return saved }

	case spinner.TickMsg:
		if m.mode == ModeSaving {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeSaving:
			return m, nil
		case ModeResult:
			switch msg.String() {
			case "e":
				return m, m.Start()
			case "esc", "enter", "q":
				return m, func() tea.Msg { return CloseMsg{} }
			}
			return m, nil
		}
	}

	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.save())
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CloseMsg{} }
	}
	return m, cmd
}

// View renders the settings view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var body string
	switch m.mode {
	case ModeSaving:
		body = m.spinner.View() + " Saving and loading the catalog..."
	case ModeResult:
		body = m.renderResult()
	default:
		if m.form != nil {
			body = m.form.View()
		}
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render("Settings") + "\n" + body)
}

func (m Model) renderResult() string {
	var b strings.Builder
	switch {
	case !m.saved:
		b.WriteString(theme.ErrorStyle.Render("Not saved: " + m.err.Error()))
	case m.err != nil:
		b.WriteString("Settings saved to " + m.configPath + "\n")
		b.WriteString(theme.ErrorStyle.Render("Catalog check failed: " + m.err.Error()))
	default:
		b.WriteString("Settings saved to " + m.configPath + "\n")
		fmt.Fprintf(&b, "Catalog check: %d activities loaded.", m.events)
	}
	b.WriteString("\n\n")
	b.WriteString(theme.DimmedStyle.Render("Source and interval changes apply on the next start. e edit | esc close"))
	return b.String()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Catalog source").
				Options(
					huh.NewOption("YAML file on this machine", model.CatalogSourceFile),
					huh.NewOption("HTTP feed", model.CatalogSourceFeed),
				).
				Value(&fb.source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Catalog file").
				Description("Path to the catalog YAML").
				Value(&fb.path).
				Validate(validateRequired("Catalog file")),
		).WithHideFunc(func() bool { return fb.source != model.CatalogSourceFile }),
		huh.NewGroup(
			huh.NewInput().
				Title("Feed URL").
				Placeholder("https://example.org/volunteer/events.json").
				Value(&fb.feedURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Feed token").
				Description("Leave empty to keep the stored token").
				EchoMode(huh.EchoModePassword).
				Value(&fb.token),
		).WithHideFunc(func() bool { return fb.source != model.CatalogSourceFeed }),
		huh.NewGroup(
			huh.NewInput().
				Title("Time zone").
				Description("Reminder days are counted in this zone (IANA name or Local)").
				Value(&fb.timezone).
				Validate(validateTimezone),
			huh.NewInput().
				Title("Reminder check interval (seconds)").
				Value(&fb.pollInterval).
				Validate(validatePositive),
			huh.NewInput().
				Title("Catalog refresh interval (seconds)").
				Description("0 disables periodic refreshes").
				Value(&fb.refreshInterval).
				Validate(validateNonNegative),
			huh.NewConfirm().
				Title("Block applications to full activities").
				Affirmative("Yes").
				Negative("No").
				Value(&fb.enforceCapacity),
		),
	).WithWidth(m.formWidth())
}

// apply copies the form values onto a copy of the current config.
func (m Model) apply() (model.AppConfig, error) {
	cfg := m.cfg
	fb := m.fb

	poll, err := strconv.Atoi(strings.TrimSpace(fb.pollInterval))
	if err != nil {
		return cfg, fmt.Errorf("reminder interval: %w", err)
	}
	refresh, err := strconv.Atoi(strings.TrimSpace(fb.refreshInterval))
	if err != nil {
		return cfg, fmt.Errorf("refresh interval: %w", err)
	}

	cfg.Catalog.Source = fb.source
	cfg.Catalog.Path = strings.TrimSpace(fb.path)
	cfg.Catalog.FeedURL = strings.TrimSpace(fb.feedURL)
	cfg.Catalog.RefreshIntervalSec = refresh
	cfg.Lifecycle.Timezone = strings.TrimSpace(fb.timezone)
	cfg.Lifecycle.PollIntervalSec = poll
	cfg.Lifecycle.EnforceCapacity = fb.enforceCapacity
	return cfg, nil
}

// save writes the config and token, then loads the new source once so the
// user sees whether it works.
func (m Model) save() tea.Cmd {
	cfg, applyErr := m.apply()
	token := strings.TrimSpace(m.fb.token)
	path := m.configPath
	openVault := m.openVault

	return func() tea.Msg {
		if applyErr != nil {
			return resultMsg{err: applyErr}
		}

		var vault *credential.Vault
		if cfg.Catalog.Source == model.CatalogSourceFeed && openVault != nil {
			v, err := openVault()
			if err != nil {
				return resultMsg{err: err}
			}
			vault = v
			if token != "" {
				if err := vault.Set(credential.FeedTokenKey, token); err != nil {
					return resultMsg{err: err}
				}
			}
		}
		if err := model.SaveConfig(path, &cfg); err != nil {
			return resultMsg{err: err}
		}

		if vault != nil && token == "" {
			stored, err := vault.Get(credential.FeedTokenKey)
			if err != nil && !credential.IsNotFound(err) {
				return resultMsg{cfg: cfg, saved: true, err: err}
			}
			token = stored
		}
		src, err := catalog.NewSource(cfg.Catalog, token)
		if err != nil {
			return resultMsg{cfg: cfg, saved: true, err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), testLoadTimeout)
		defer cancel()
		events, err := src.Load(ctx)
		return resultMsg{cfg: cfg, saved: true, events: len(events), err: err}
	}
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

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validateTimezone(s string) error {
	_, err := model.LifecycleConfig{Timezone: strings.TrimSpace(s)}.Location()
	return err
}

func validatePositive(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive number")
	}
	return nil
}

func validateNonNegative(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return fmt.Errorf("must be zero or a positive number")
	}
	return nil
}
