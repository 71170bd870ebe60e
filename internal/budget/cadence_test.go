package budget

import (
	"errors"
	"math"
	"testing"
)

func TestCadenceRoundTrip(t *testing.T) {
	for _, c := range Cadences {
		for _, amount := range []float64{0, 0.01, 1, 123.45, 2500, 1e6} {
			got := ToMonthly(ToPerPaycheck(amount, c), c)
			if math.Abs(got-amount) > 1e-9*math.Max(1, amount) {
				t.Errorf("%s: round trip of %.2f = %.12f", c, amount, got)
			}
		}
	}
}

func TestCadenceExactRoundTrip(t *testing.T) {
	// 2.0 and 1.0 are exact in float64, so these never drift.
	for _, c := range []Cadence{SemiMonthly, Monthly} {
		if got := ToMonthly(ToPerPaycheck(1234.56, c), c); got != 1234.56 {
			t.Errorf("%s: round trip = %v, want exact", c, got)
		}
	}
}

func TestToMonthly(t *testing.T) {
	tests := []struct {
		cadence Cadence
		amount  float64
		want    float64
	}{
		{Weekly, 1200, 5200},
		{BiWeekly, 1200, 2600},
		{SemiMonthly, 1200, 2400},
		{Monthly, 1200, 1200},
	}
	for _, tt := range tests {
		got := ToMonthly(tt.amount, tt.cadence)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ToMonthly(%v, %s) = %v, want %v", tt.amount, tt.cadence, got, tt.want)
		}
	}
}

func TestToPerPaycheck(t *testing.T) {
	tests := []struct {
		cadence Cadence
		want    float64
	}{
		{Weekly, 5200.0 * 12 / 52},
		{BiWeekly, 5200.0 * 12 / 26},
		{SemiMonthly, 2600},
		{Monthly, 5200},
	}
	for _, tt := range tests {
		got := ToPerPaycheck(5200, tt.cadence)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ToPerPaycheck(5200, %s) = %v, want %v", tt.cadence, got, tt.want)
		}
	}
}

func TestUnsetCadenceActsMonthly(t *testing.T) {
	var c Cadence
	if c.PaychecksPerMonth() != 1 || c.MonthlyToPaycheckFactor() != 1 {
		t.Fatalf("zero cadence factors = %v/%v, want 1/1", c.PaychecksPerMonth(), c.MonthlyToPaycheckFactor())
	}
}

func TestParseCadence(t *testing.T) {
	tests := map[string]Cadence{
		"weekly":        Weekly,
		" Weekly ":      Weekly,
		"bi-weekly":     BiWeekly,
		"biweekly":      BiWeekly,
		"bi_weekly":     BiWeekly,
		"semi-monthly":  SemiMonthly,
		"semimonthly":   SemiMonthly,
		"MONTHLY":       Monthly,
		"twice-monthly": SemiMonthly,
	}
	for in, want := range tests {
		got, err := ParseCadence(in)
		if err != nil {
			t.Fatalf("ParseCadence(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseCadence(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseCadence("daily"); !errors.Is(err, ErrUnknownCadence) {
		t.Fatalf("ParseCadence(daily) err = %v, want ErrUnknownCadence", err)
	}
}
