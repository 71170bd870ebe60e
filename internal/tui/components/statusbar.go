package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

// RenderStatusBar renders the bottom status bar. info sits after the key
// hints; right is right-aligned (data age, refresh state, flash messages).
func RenderStatusBar(width int, info, right string, warn bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	rightStyle := style
	if warn {
		rightStyle = rightStyle.Foreground(t.Orange)
	}

	left := style.Render(" [?]help  [q]uit")
	if info != "" {
		left += style.Render("  │ " + info)
	}
	r := rightStyle.Render(right + " ")

	padding := width - lipgloss.Width(left) - lipgloss.Width(r)
	if padding < 0 {
		padding = 0
	}
	return left + style.Width(padding).Render("") + r
}
