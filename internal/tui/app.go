// Package tui provides the interactive Bubble Tea dashboard for paysplit.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/config"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
	"github.com/theirongolddev/paysplit/internal/tui/components"
	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

// BudgetLoadedMsg is sent when a planner refresh finishes.
type BudgetLoadedMsg struct {
	Result   *pipeline.Result
	Err      error
	LoadTime time.Duration
}

// MutatedMsg reports a catalog or config change made from the dashboard.
type MutatedMsg struct {
	Note string
	Err  error
}

type setupDoneMsg struct {
	cfg config.Config
	err error
}

// App is the root Bubble Tea model.
type App struct {
	planner *pipeline.Planner
	cfg     config.Config

	// Data
	res      *pipeline.Result
	rows     []pipeline.Row
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Refresh state
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Per-tab state
	table    tableState
	balance  balanceState
	settings settingsState

	// One-line feedback in the status bar
	flash    string
	flashErr bool
	flashAt  time.Time

	// Onboarding (huh form)
	setupForm *huh.Form
	setupVals *SetupValues // the form writes through this pointer
	needSetup bool

	spinner spinner.Model
}

const (
	tabBudget = iota
	tabRecommended
	tabPerfect
	tabBalance
	tabSettings
)

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	flashDuration = 4 * time.Second
)

// NewApp creates a new dashboard over planner. cfg is the effective
// configuration; onboarding starts when it has not been completed.
func NewApp(planner *pipeline.Planner, cfg config.Config) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	interval := cfg.Daemon.Interval()
	if interval < 10*time.Second {
		interval = 30 * time.Second
	}

	return App{
		planner:         planner,
		cfg:             cfg,
		needSetup:       !cfg.Onboarding.Completed,
		refreshInterval: interval,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		refreshCmd(a.planner),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a *App) setResult(res *pipeline.Result) {
	a.res = res
	a.rows = pipeline.BuildRows(res)

	if a.table.cursor >= len(a.rows) {
		a.table.cursor = len(a.rows) - 1
	}
	if a.table.cursor < 0 {
		a.table.cursor = 0
	}
	if a.balance.cursor >= len(res.Plan.Additions) {
		a.balance.cursor = max(0, len(res.Plan.Additions)-1)
	}
}

func (a *App) setFlash(msg string, isErr bool) {
	a.flash = msg
	a.flashErr = isErr
	a.flashAt = time.Now()
}

func isViewTab(tab int) bool {
	return tab >= tabBudget && tab <= tabPerfect
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if isViewTab(a.activeTab) && !a.table.editing && a.table.cursor > 0 {
				a.table.cursor--
			}
			return a, nil

		case tea.MouseButtonWheelDown:
			if isViewTab(a.activeTab) && !a.table.editing && a.table.cursor < len(a.rows)-1 {
				a.table.cursor++
			}
			return a, nil

		case tea.MouseButtonLeft:
			// Tab bar is the first line.
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 && tab < len(components.Tabs) {
					a.activeTab = tab
				}
			}
			return a, nil
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		// Onboarding intercepts all keys
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if a.activeTab == tabSettings && a.settings.editing {
			return a.updateSettingsInput(msg)
		}

		if isViewTab(a.activeTab) && a.table.editing {
			return a.updateAmountInput(msg)
		}

		if a.table.confirmDelete {
			a.table.confirmDelete = false
			if key == "y" || key == "Y" {
				if row, ok := a.cursorRow(); ok {
					return a, deleteCmd(a.planner, row)
				}
			}
			a.setFlash("Delete cancelled", false)
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}

		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if isViewTab(a.activeTab) {
			if m, cmd, handled := a.updateTableKeys(key); handled {
				return m, cmd
			}
		}

		if a.activeTab == tabBalance {
			if m, cmd, handled := a.updateBalanceKeys(key); handled {
				return m, cmd
			}
		}

		if a.activeTab == tabSettings {
			switch key {
			case "j", "down":
				if a.settings.cursor < settingsFieldCount-1 {
					a.settings.cursor++
				}
				return a, nil
			case "k", "up":
				if a.settings.cursor > 0 {
					a.settings.cursor--
				}
				return a, nil
			case "enter":
				return a.settingsStartEdit()
			}
		}

		if key == "q" {
			return a, tea.Quit
		}

		// Manual refresh
		if key == "r" && !a.refreshing {
			a.refreshing = true
			return a, refreshCmd(a.planner)
		}

		// Tab navigation
		switch key {
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if r := []rune(key); len(r) == 1 {
				if tab := components.TabIdxByKey(r[0]); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case BudgetLoadedMsg:
		a.refreshing = false
		a.lastRefresh = time.Now()
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		wasLoaded := a.loaded
		a.loaded = true
		if msg.Err == nil {
			a.setResult(msg.Result)
		}

		// Start onboarding once the catalog is known
		if !wasLoaded && a.needSetup {
			cmd := a.startSetup()
			return a, cmd
		}
		return a, nil

	case MutatedMsg:
		if msg.Err != nil {
			a.setFlash(msg.Err.Error(), true)
			return a, nil
		}
		a.setFlash(msg.Note, false)
		a.refreshing = true
		return a, refreshCmd(a.planner)

	case setupDoneMsg:
		if msg.err != nil {
			a.setFlash("Setup failed: "+msg.err.Error(), true)
			return a, nil
		}
		a.cfg.Budget = msg.cfg.Budget
		a.cfg.Onboarding = msg.cfg.Onboarding
		a.cfg.Appearance = msg.cfg.Appearance
		theme.SetActive(a.cfg.Appearance.Theme)
		if cadence, err := a.cfg.Cadence(); err == nil {
			a.planner.SetIncome(a.cfg.Budget.Paycheck, cadence)
		}
		a.setFlash("Setup saved", false)
		a.refreshing = true
		return a, refreshCmd(a.planner)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}

		if a.flash != "" && time.Since(a.flashAt) >= flashDuration {
			a.flash = ""
		}

		if a.loaded && !a.refreshing && a.setupForm == nil && time.Since(a.lastRefresh) >= a.refreshInterval {
			a.refreshing = true
			cmds = append(cmds, refreshCmd(a.planner))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a *App) startSetup() tea.Cmd {
	var categories []model.Category
	if a.res != nil {
		categories = a.res.Categories
	}
	vals := DefaultSetupValues(a.cfg, categories)
	a.setupVals = &vals
	a.setupForm = NewSetupForm(a.setupVals, categories)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		vals := *a.setupVals
		a.needSetup = false
		a.setupForm = nil
		return a, applySetupCmd(a.planner.Catalog(), vals)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  paysplit needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ paysplit"))
	b.WriteString(subtitleStyle.Render(" · Paycheck Budget"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading categories..."))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	section := func(title string, binds []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}

	section("Navigation", []struct{ key, desc string }{
		{"b e p a x", "Jump to tab"},
		{"← → tab", "Previous / Next tab"},
		{"j k g G", "Move in lists"},
	})
	section("Budget tables", []struct{ key, desc string }{
		{"Enter", "Edit amount"},
		{"space", "Deselect"},
		{"D", "Delete (asks first)"},
	})
	section("Actions", []struct{ key, desc string }{
		{"Enter", "Add suggestion (Balance) / Edit (Settings)"},
		{"Esc", "Cancel"},
		{"r", "Refresh"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	})

	b.WriteString(dimStyle.Render("Press any key to close"))

	card := cardStyle.Render(b.String())

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)
	statusBar := a.renderStatusBar(w)

	headerH := lipgloss.Height(header)
	statusH := lipgloss.Height(statusBar)
	contentH := max(h-headerH-statusH, minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error", a.loadErr.Error(), cw)
	case isViewTab(a.activeTab):
		content = a.renderViewTab(pipeline.Views[a.activeTab], cw, contentH)
	case a.activeTab == tabBalance:
		content = a.renderBalanceTab(cw)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderStatusBar(w int) string {
	info := ""
	if a.res != nil {
		snap := a.res.Snapshot
		info = fmt.Sprintf("%s %s", cli.FormatMoney(snap.Paycheck), snap.Cadence.Label())
	}

	right := ""
	warn := false
	switch {
	case a.flash != "":
		right = a.flash
		warn = a.flashErr
	case a.refreshing:
		right = "refreshing…"
	case !a.lastRefresh.IsZero():
		right = "updated " + humanize.Time(a.lastRefresh)
	}
	return components.RenderStatusBar(w, info, right, warn)
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// refreshCmd recomputes the budget from the catalog in the background.
func refreshCmd(planner *pipeline.Planner) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		res, err := planner.Refresh(ctx)
		return BudgetLoadedMsg{Result: res, Err: err, LoadTime: time.Since(start)}
	}
}

func mutate(note string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			return MutatedMsg{Err: err}
		}
		return MutatedMsg{Note: note}
	}
}

func updateAmountCmd(cat catalog.Catalog, row pipeline.Row, amount *float64) tea.Cmd {
	return mutate(fmt.Sprintf("%s set to %s", row.Name, cli.FormatOptional(amount)), func(ctx context.Context) error {
		return cat.UpdateAmount(ctx, row.ID, amount)
	})
}

func setSelectedCmd(cat catalog.Catalog, id, name string, selected bool) tea.Cmd {
	verb := "Deselected"
	if selected {
		verb = "Added"
	}
	return mutate(verb+" "+name, func(ctx context.Context) error {
		return cat.SetSelected(ctx, id, selected)
	})
}

func deleteCmd(planner *pipeline.Planner, row pipeline.Row) tea.Cmd {
	return mutate("Deleted "+row.Name, func(ctx context.Context) error {
		if row.Sub {
			_, err := planner.RemoveSubcategory(ctx, row.ID)
			return err
		}
		_, err := planner.DeleteCategory(ctx, row.ID)
		return err
	})
}

func applySetupCmd(cat catalog.Catalog, vals SetupValues) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Start from the file so flag and env overrides are not persisted.
		fileCfg, err := config.Load()
		if err != nil {
			return setupDoneMsg{err: err}
		}
		cfg, err := ApplySetup(ctx, cat, fileCfg, vals, time.Now())
		if err != nil {
			return setupDoneMsg{err: err}
		}
		if err := config.Save(cfg); err != nil {
			return setupDoneMsg{err: fmt.Errorf("saving config: %w", err)}
		}
		return setupDoneMsg{cfg: cfg}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

// newAmountInput returns a focused text input for editing an amount.
func newAmountInput(current string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "amount, or none to clear"
	ti.CharLimit = 32
	ti.Width = 24
	ti.SetValue(current)
	ti.Focus()
	return ti
}
