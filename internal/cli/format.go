// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatMoney formats a dollar amount with thousands separators and cents.
// NaN and infinities render as "$0.00".
// e.g., 1234.5 -> "$1,234.50", -12 -> "-$12.00"
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0.00"
	}
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", d.InexactFloat64())
}

// FormatCompact formats large amounts with a suffix for narrow cards.
// e.g., 950 -> "$950", 12345 -> "$12.3K"
func FormatCompact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$0"
	}
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s$%.1fM", sign, abs/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%s$%.1fK", sign, abs/1_000)
	case abs >= 100:
		return sign + "$" + humanize.Comma(int64(math.Round(abs)))
	}
	return FormatMoney(v)
}

// FormatOptional formats an amount that may be unset.
func FormatOptional(p *float64) string {
	if p == nil {
		return "-"
	}
	return FormatMoney(*p)
}

// FormatDelta formats a signed balance.
// e.g., 12.5 -> "+$12.50", -3 -> "-$3.00"
func FormatDelta(v float64) string {
	if v >= 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// FormatDue formats a due date with a relative hint.
// e.g., "2026-03-01 (4 months from now)"
func FormatDue(due *time.Time, now time.Time) string {
	if due == nil {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", due.Format("2006-01-02"), humanize.RelTime(*due, now, "ago", "from now"))
}

// ErrNegativeAmount is returned by ParseAmount for values below zero.
var ErrNegativeAmount = errors.New("amount must not be negative")

// ParseAmount parses user input such as "1,250.50" or "$80" and rounds it to
// cents.
func ParseAmount(s string) (float64, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.ReplaceAll(clean, "_", "")
	if clean == "" {
		return 0, errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.IsNegative() {
		return 0, ErrNegativeAmount
	}
	return d.Round(2).InexactFloat64(), nil
}

// ParseOptionalAmount is ParseAmount where "", "-" and "none" clear the value.
func ParseOptionalAmount(s string) (*float64, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "none", "clear":
		return nil, nil
	}
	v, err := ParseAmount(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseDate parses a YYYY-MM-DD date in local time. "", "-" and "none" clear
// it.
func ParseDate(s string) (*time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", "none", "clear":
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return &t, nil
}

// SumMoney adds amounts in decimal so long columns total to the cent.
func SumMoney(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}
