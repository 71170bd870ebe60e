package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/config"
	"github.com/theirongolddev/paysplit/internal/tui/components"
	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

const (
	settingsFieldPaycheck = iota
	settingsFieldCadence
	settingsFieldTheme
	settingsFieldRefreshInterval
	settingsFieldSetup
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // show "saved" until the next edit
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 64
	ti.Width = 40
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	if a.settings.cursor == settingsFieldSetup {
		cmd := a.startSetup()
		return a, cmd
	}

	a.settings.editing = true
	a.settings.saved = false

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldPaycheck:
		ti.Placeholder = "2000"
		if a.cfg.Budget.Paycheck > 0 {
			ti.SetValue(strconv.FormatFloat(a.cfg.Budget.Paycheck, 'f', 2, 64))
		}
	case settingsFieldCadence:
		ti.Placeholder = "weekly, bi-weekly, semi-monthly, monthly"
		ti.SetValue(a.cfg.Budget.Cadence)
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldRefreshInterval:
		ti.Placeholder = "30 (seconds, minimum 10)"
		ti.SetValue(strconv.Itoa(int(a.refreshInterval.Seconds())))
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		incomeChanged := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		if incomeChanged {
			a.refreshing = true
			return a, refreshCmd(a.planner)
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited field, writes it to the config file and
// applies it to the running dashboard. It reports whether the budget must
// be recomputed.
func (a *App) settingsSave() bool {
	fileCfg, err := config.Load()
	if err != nil {
		a.settings.saveErr = err
		return false
	}
	val := strings.TrimSpace(a.settings.input.Value())

	incomeChanged := false
	switch a.settings.cursor {
	case settingsFieldPaycheck:
		amount, err := cli.ParseAmount(val)
		if err != nil {
			a.settings.saveErr = err
			return false
		}
		fileCfg.Budget.Paycheck = amount
		a.cfg.Budget.Paycheck = amount
		incomeChanged = true
	case settingsFieldCadence:
		c, err := budget.ParseCadence(val)
		if err != nil {
			a.settings.saveErr = err
			return false
		}
		fileCfg.Budget.Cadence = string(c)
		a.cfg.Budget.Cadence = string(c)
		incomeChanged = true
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return false
		}
		fileCfg.Appearance.Theme = val
		a.cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldRefreshInterval:
		secs, err := strconv.Atoi(val)
		if err != nil || secs < 10 {
			a.settings.saveErr = errors.New("refresh interval must be at least 10 seconds")
			return false
		}
		fileCfg.Daemon.IntervalSecs = secs
		a.cfg.Daemon.IntervalSecs = secs
		a.refreshInterval = time.Duration(secs) * time.Second
	}

	if incomeChanged {
		if cadence, err := a.cfg.Cadence(); err == nil {
			a.planner.SetIncome(a.cfg.Budget.Paycheck, cadence)
		}
	}

	a.settings.saveErr = config.Save(fileCfg)
	return incomeChanged
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	type field struct {
		label string
		value string
	}

	paycheck := "(not set)"
	if a.cfg.Budget.Paycheck > 0 {
		paycheck = cli.FormatMoney(a.cfg.Budget.Paycheck)
	}
	cadence := a.cfg.Budget.Cadence
	if c, err := a.cfg.Cadence(); err == nil {
		cadence = c.Label()
	}
	setup := "not completed"
	if a.cfg.Onboarding.Completed {
		setup = "completed " + a.cfg.Onboarding.CompletedAt.Format("2006-01-02")
	}

	fields := []field{
		{"Paycheck", paycheck},
		{"Pay Cadence", cadence},
		{"Theme", a.cfg.Appearance.Theme},
		{"Refresh Interval", fmt.Sprintf("%ds", int(a.refreshInterval.Seconds()))},
		{"Setup", setup + "  (Enter to run again)"},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker)
			formBody.WriteString(label)
			formBody.WriteString(value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := components.CardInnerWidth(cw) - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	categories, selected := 0, 0
	if a.res != nil {
		categories = len(a.res.Categories)
		selected = len(a.res.Selected())
	}

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Database:        ") + valueStyle.Render(a.cfg.DBPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("Categories:      ") + valueStyle.Render(fmt.Sprintf("%d (%d selected)", categories, selected)) + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%dms", a.loadTime.Milliseconds())) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))

	return b.String()
}
