package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

// Bar is one row of a horizontal bar chart. Compare, when set, is drawn as a
// second thinner bar underneath in CompareColor.
type Bar struct {
	Label        string
	Value        float64
	Color        lipgloss.Color
	Compare      *float64
	CompareColor lipgloss.Color
}

// HBarChart renders labeled horizontal bars scaled to the largest value.
// format renders the value printed after each bar.
func HBarChart(bars []Bar, width int, format func(float64) string) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	peak := 0.0
	valueW := 0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		peak = max(peak, b.Value)
		valueW = max(valueW, lipgloss.Width(format(b.Value)))
		if b.Compare != nil {
			peak = max(peak, *b.Compare)
			valueW = max(valueW, lipgloss.Width(format(*b.Compare)))
		}
	}
	if peak <= 0 {
		peak = 1
	}
	barMax := width - labelW - valueW - 2
	if barMax < 1 {
		barMax = 1
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	space := lipgloss.NewStyle().Background(t.Surface)

	line := func(label string, v float64, glyph string, color lipgloss.Color, vs lipgloss.Style) string {
		n := int(v / peak * float64(barMax))
		if n < 0 {
			n = 0
		}
		bar := lipgloss.NewStyle().Foreground(color).Background(t.Surface).Render(strings.Repeat(glyph, n))
		return labelStyle.Render(fmt.Sprintf("%-*s", labelW, label)) +
			space.Render(" ") + bar + space.Render(strings.Repeat(" ", barMax-n+1)) +
			vs.Render(fmt.Sprintf("%*s", valueW, format(v)))
	}

	var out []string
	for _, b := range bars {
		color := b.Color
		if color == "" {
			color = t.Accent
		}
		out = append(out, line(b.Label, b.Value, "█", color, valueStyle))
		if b.Compare != nil {
			cc := b.CompareColor
			if cc == "" {
				cc = t.TextDim
			}
			out = append(out, line("", *b.Compare, "▔", cc, dimStyle))
		}
	}
	return strings.Join(out, "\n")
}
