package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/paysplit/internal/cli"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/tui/components"
	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

// balanceState tracks the cursor over proposed additions.
type balanceState struct {
	cursor int
}

func (a App) updateBalanceKeys(key string) (tea.Model, tea.Cmd, bool) {
	if a.res == nil {
		return a, nil, false
	}
	additions := a.res.Plan.Additions

	switch key {
	case "j", "down":
		if a.balance.cursor < len(additions)-1 {
			a.balance.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.balance.cursor > 0 {
			a.balance.cursor--
		}
		return a, nil, true
	case "enter":
		if a.res.Plan.Deficit() || a.balance.cursor >= len(additions) {
			return a, nil, true
		}
		c := additions[a.balance.cursor].Category
		return a, setSelectedCmd(a.planner.Catalog(), c.ID, c.Name, true), true
	}
	return a, nil, false
}

func (a App) renderBalanceTab(cw int) string {
	t := theme.Active
	res := a.res
	if res == nil {
		return ""
	}
	plan := res.Plan
	paycheck := res.Snapshot.Paycheck
	entered := res.Summary.Entered.Total()

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	okStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	selStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)

	innerW := components.CardInnerWidth(cw)

	var b strings.Builder

	metrics := []components.Metric{
		{Label: "Paycheck", Value: cli.FormatMoney(paycheck), Delta: res.Snapshot.Cadence.Label()},
		{Label: "Allocated", Value: cli.FormatMoney(entered), Delta: shareOf(entered, paycheck) + " of paycheck"},
		{Label: "Balance", Value: cli.FormatDelta(plan.Balance), Warn: plan.Deficit()},
	}
	b.WriteString(components.MetricCardRow(metrics, cw))
	b.WriteString("\n")

	var body strings.Builder
	body.WriteString(components.CompactBar("Allocated", ratio(entered, paycheck), min(innerW, 60)))
	body.WriteString("\n\n")

	title := "Surplus"
	switch {
	case plan.Deficit():
		title = "Deficit"
		body.WriteString(warnStyle.Render(fmt.Sprintf("Over budget by %s. Trim these, least important first:", cli.FormatMoney(-plan.Balance))))
		body.WriteString("\n")
		for _, c := range plan.Highlighted {
			amount := res.Snapshot.Allocations[c.ID]
			body.WriteString(labelStyle.Render(fmt.Sprintf("  %-24s p%-3d ", truncStr(c.Name, 24), c.Priority)))
			body.WriteString(valueStyle.Render(cli.FormatMoney(amount)))
			body.WriteString("\n")
		}
	case plan.Balance == 0:
		title = "Balanced"
		body.WriteString(okStyle.Render("Every dollar is allocated."))
		body.WriteString("\n")
	default:
		body.WriteString(okStyle.Render(fmt.Sprintf("%s left to allocate.", cli.FormatMoney(plan.Balance))))
		body.WriteString("\n")
		if len(plan.Additions) == 0 {
			body.WriteString(dimStyle.Render("No unselected categories to suggest."))
			body.WriteString("\n")
		}
		for i, add := range plan.Additions {
			text := fmt.Sprintf("%-24s %-8s %12s", truncStr(add.Category.Name, 24), add.Category.Type.Label(), cli.FormatMoney(add.Amount))
			if i == a.balance.cursor {
				line := selStyle.Render("▸ " + text)
				if pad := innerW - lipgloss.Width(line); pad > 0 {
					line += lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad))
				}
				body.WriteString(line)
			} else {
				body.WriteString(labelStyle.Render("  " + text))
			}
			body.WriteString("\n")
		}
		if len(plan.Additions) > 0 {
			body.WriteString(dimStyle.Render("[j/k] move  [Enter] add to budget"))
			body.WriteString("\n")
		}
	}

	b.WriteString(components.ContentCard(title, strings.TrimRight(body.String(), "\n"), cw))
	b.WriteString("\n")

	// Entered vs perfect per type; the thin bar underneath is perfect.
	var bars []components.Bar
	for _, ct := range model.CategoryTypes {
		perfect := res.Summary.Perfect[ct]
		bars = append(bars, components.Bar{
			Label:   ct.Label(),
			Value:   res.Summary.Entered[ct],
			Color:   t.ForType(ct),
			Compare: &perfect,
		})
	}
	chart := components.HBarChart(bars, innerW, cli.FormatCompact)
	b.WriteString(components.ContentCard("Entered vs Perfect", chart, cw))

	return b.String()
}
