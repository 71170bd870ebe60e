package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/paysplit/internal/tui/theme"
)

func TestHBarChartCompareLine(t *testing.T) {
	perfect := 50.0
	bars := []Bar{
		{Label: "Need", Value: 100, Compare: &perfect},
		{Label: "Want", Value: 25},
	}
	out := HBarChart(bars, 40, func(float64) string { return "$999" })

	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3 (two bars + one compare line)", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 40 {
			t.Errorf("line %d width = %d, want 40", i, w)
		}
	}
}

func TestHBarChartEmpty(t *testing.T) {
	if got := HBarChart(nil, 40, func(float64) string { return "" }); got != "" {
		t.Fatalf("empty chart = %q", got)
	}
}

func TestColorForPct(t *testing.T) {
	th := theme.Active
	cases := []struct {
		pct  float64
		want string
	}{
		{0.5, string(th.Green)},
		{0.85, string(th.Yellow)},
		{0.97, string(th.Orange)},
		{1.2, string(th.Red)},
	}
	for _, tc := range cases {
		if got := ColorForPct(tc.pct); got != tc.want {
			t.Errorf("ColorForPct(%.2f) = %s, want %s", tc.pct, got, tc.want)
		}
	}
}

func TestTabIdxByKey(t *testing.T) {
	if got := TabIdxByKey('x'); got != len(Tabs)-1 {
		t.Fatalf("x -> %d, want settings", got)
	}
	if got := TabIdxByKey('z'); got != -1 {
		t.Fatalf("z -> %d, want -1", got)
	}
}
