package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
	"github.com/theirongolddev/paysplit/internal/tui/components"
	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

// tableState tracks the cursor and inline editing on the budget tabs.
type tableState struct {
	cursor        int
	editing       bool
	input         textinput.Model
	confirmDelete bool
}

func (a App) cursorRow() (pipeline.Row, bool) {
	if a.table.cursor < 0 || a.table.cursor >= len(a.rows) {
		return pipeline.Row{}, false
	}
	return a.rows[a.table.cursor], true
}

// updateTableKeys handles list navigation and row actions. handled is false
// for keys the table does not use.
func (a App) updateTableKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.table.cursor < len(a.rows)-1 {
			a.table.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.table.cursor > 0 {
			a.table.cursor--
		}
		return a, nil, true
	case "g", "home":
		a.table.cursor = 0
		return a, nil, true
	case "G", "end":
		a.table.cursor = max(0, len(a.rows)-1)
		return a, nil, true
	case "enter":
		row, ok := a.cursorRow()
		if !ok {
			return a, nil, true
		}
		if !row.Sub && catalog.DerivesAmount(row.Type) {
			a.setFlash(row.Name+" totals its subcategories; edit those instead", true)
			return a, nil, true
		}
		current := ""
		if item, found := model.FindItem(a.res.Categories, row.ID); found {
			if v, set := item.ItemAmount(); set {
				current = strconv.FormatFloat(v, 'f', 2, 64)
			}
		}
		a.table.editing = true
		a.table.input = newAmountInput(current)
		blink := a.table.input.Cursor.BlinkCmd()
		return a, blink, true
	case " ":
		row, ok := a.cursorRow()
		if !ok {
			return a, nil, true
		}
		return a, setSelectedCmd(a.planner.Catalog(), row.ID, row.Name, false), true
	case "D":
		row, ok := a.cursorRow()
		if !ok {
			return a, nil, true
		}
		a.table.confirmDelete = true
		a.setFlash(fmt.Sprintf("Delete %s? (y/n)", row.Name), true)
		return a, nil, true
	}
	return a, nil, false
}

func (a App) updateAmountInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.table.editing = false
		row, ok := a.cursorRow()
		if !ok {
			return a, nil
		}
		amount, err := cli.ParseOptionalAmount(a.table.input.Value())
		if err != nil {
			a.setFlash(err.Error(), true)
			return a, nil
		}
		return a, updateAmountCmd(a.planner.Catalog(), row, amount)
	case "esc":
		a.table.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.table.input, cmd = a.table.input.Update(msg)
	return a, cmd
}

func (a App) renderViewTab(view pipeline.View, cw, h int) string {
	res := a.res
	if res == nil {
		return ""
	}
	snap := res.Snapshot
	totals := view.Totals(res.Summary)
	allocated := totals.Total()
	left := snap.Paycheck - allocated

	var b strings.Builder

	metrics := []components.Metric{
		{Label: "Paycheck", Value: cli.FormatMoney(snap.Paycheck), Delta: snap.Cadence.Label()},
		{Label: "Monthly Income", Value: cli.FormatMoney(res.Summary.MonthlyIncome)},
		{Label: "Allocated", Value: cli.FormatMoney(allocated), Delta: shareOf(allocated, snap.Paycheck) + " of paycheck"},
		{Label: "Left Over", Value: cli.FormatMoney(left), Warn: left < 0},
	}
	if a.isCompactLayout() {
		metrics = append(metrics[:1], metrics[2:]...)
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	typesCard := components.ContentCard("By Type", typeBars(totals, snap.Paycheck, cw), cw)

	// Rows that fit between the metric and type cards.
	used := lipgloss.Height(b.String()) + lipgloss.Height(typesCard) + 5
	visible := max(3, h-used)

	table := a.renderRowsTable(view, cw, visible)
	b.WriteString(components.ContentCard(view.Title(), table, cw))
	b.WriteString("\n")
	b.WriteString(typesCard)

	return b.String()
}

func (a App) renderRowsTable(view pipeline.View, cw, visible int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	headerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	subStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	trimStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)

	if len(a.rows) == 0 {
		return dimStyle.Render("No categories selected. Run setup from the Settings tab or `paysplit categories select`.")
	}

	const (
		typeW   = 8
		prioW   = 5
		amountW = 13
		noteW   = 12
	)
	nameW := max(12, innerW-typeW-prioW-amountW-noteW-6)

	header := fmt.Sprintf("  %-*s %-*s %*s %*s  %-*s",
		nameW, "Category", typeW, "Type", prioW, "Prio", amountW, "Amount", noteW, "Note")
	lines := []string{headerStyle.Render(header), dimStyle.Render(strings.Repeat("─", innerW))}

	offset := max(0, a.table.cursor-visible+1)
	end := min(len(a.rows), offset+visible)
	now := time.Now()

	for i := offset; i < end; i++ {
		row := a.rows[i]

		name := row.Name
		if row.Sub {
			name = "  " + name
		}
		note := ""
		if row.Type == model.Debt && !row.Sub {
			if item, ok := model.FindItem(a.res.Categories, row.ID); ok {
				if c, isCat := item.(model.Category); isCat {
					note = cli.FormatDue(c.DueDate, now)
				}
			}
		}
		if view == pipeline.ViewEntered && row.Highlighted {
			note = "trim"
		}

		if i == a.table.cursor && a.table.editing {
			prefix := fmt.Sprintf("▸ %-*s ", nameW, truncStr(name, nameW))
			lines = append(lines, accentStyle.Render(prefix)+a.table.input.View())
			continue
		}

		typeLabel := ""
		if !row.Sub {
			typeLabel = row.Type.Label()
		}
		text := fmt.Sprintf("%-*s %-*s %*d %*s  %-*s",
			nameW, truncStr(name, nameW),
			typeW, typeLabel,
			prioW, row.Priority,
			amountW, cli.FormatMoney(row.Value(view)),
			noteW, truncStr(note, noteW))

		if i == a.table.cursor {
			line := selStyle.Render("▸ " + text)
			if pad := innerW - lipgloss.Width(line); pad > 0 {
				line += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
			}
			lines = append(lines, line)
			continue
		}

		style := rowStyle
		switch {
		case note == "trim":
			style = trimStyle
		case row.Sub:
			style = subStyle
		}
		lines = append(lines, rowStyle.Render("  ")+style.Render(text))
	}

	if len(a.rows) > visible {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("%d-%d of %d", offset+1, end, len(a.rows))))
	}
	lines = append(lines, dimStyle.Render("[j/k] move  [Enter] amount  [space] deselect  [D] delete  [r] refresh"))

	return strings.Join(lines, "\n")
}

// typeBars renders one share-of-paycheck bar per category type.
func typeBars(totals budget.TypeTotals, paycheck float64, cw int) string {
	t := theme.Active
	innerW := components.CardInnerWidth(cw)

	const labelW = 8
	barW := max(10, innerW-labelW-24)

	var lines []string
	for _, ct := range model.CategoryTypes {
		amount := totals[ct]
		lines = append(lines, components.ShareBar(ct.Label(), ratio(amount, paycheck), cli.FormatMoney(amount), t.ForType(ct), labelW, barW))
	}
	return strings.Join(lines, "\n")
}

func ratio(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole
}

func shareOf(part, whole float64) string {
	return cli.FormatPercent(ratio(part, whole))
}
