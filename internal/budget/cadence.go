// Package budget implements the allocation engine: cadence conversion, debt
// amortization, the entered / recommended / perfect allocation passes and
// deficit/surplus prioritization.
package budget

import (
	"errors"
	"fmt"
	"strings"
)

// Cadence is how often a paycheck arrives.
type Cadence string

const (
	Weekly      Cadence = "weekly"
	BiWeekly    Cadence = "bi-weekly"
	SemiMonthly Cadence = "semi-monthly"
	Monthly     Cadence = "monthly"
)

// Cadences lists every cadence from most to least frequent.
var Cadences = []Cadence{Weekly, BiWeekly, SemiMonthly, Monthly}

// ErrUnknownCadence is returned by ParseCadence for unrecognized input.
var ErrUnknownCadence = errors.New("unknown cadence")

// ParseCadence accepts the canonical names plus the common spellings
// "biweekly", "bi_weekly", "semimonthly" and "semi_monthly".
func ParseCadence(s string) (Cadence, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.ReplaceAll(v, "_", "-")
	switch v {
	case "weekly":
		return Weekly, nil
	case "bi-weekly", "biweekly", "fortnightly":
		return BiWeekly, nil
	case "semi-monthly", "semimonthly", "twice-monthly":
		return SemiMonthly, nil
	case "monthly":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCadence, s)
}

// PaychecksPerYear returns 52, 26, 24 or 12. An unset cadence counts as
// monthly.
func (c Cadence) PaychecksPerYear() float64 {
	switch c {
	case Weekly:
		return 52
	case BiWeekly:
		return 26
	case SemiMonthly:
		return 24
	default:
		return 12
	}
}

// PaychecksPerMonth is the per-paycheck → monthly factor (52/12 for weekly).
func (c Cadence) PaychecksPerMonth() float64 {
	return c.PaychecksPerYear() / 12
}

// MonthlyToPaycheckFactor is the monthly → per-paycheck factor (12/52 for
// weekly).
func (c Cadence) MonthlyToPaycheckFactor() float64 {
	return 12 / c.PaychecksPerYear()
}

// Label returns a display name.
func (c Cadence) Label() string {
	switch c {
	case Weekly:
		return "Weekly"
	case BiWeekly:
		return "Bi-weekly"
	case SemiMonthly:
		return "Semi-monthly"
	case Monthly:
		return "Monthly"
	}
	return string(c)
}

// ToMonthly converts a per-paycheck amount to its monthly equivalent.
//
// ToMonthly(ToPerPaycheck(x, c), c) returns x only up to float64 precision:
// 52/12 and 26/12 are not exactly representable, so a round trip through
// weekly or bi-weekly can be off by a few ULPs. Semi-monthly (2.0) and
// monthly (1.0) round-trip exactly.
func ToMonthly(amount float64, c Cadence) float64 {
	return amount * c.PaychecksPerMonth()
}

// ToPerPaycheck converts a monthly amount to the per-paycheck equivalent.
func ToPerPaycheck(amount float64, c Cadence) float64 {
	return amount * c.MonthlyToPaycheckFactor()
}
