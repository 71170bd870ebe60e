package budget

import (
	"math"
	"testing"

	"github.com/theirongolddev/paysplit/internal/model"
)

func TestCategoryPercentage(t *testing.T) {
	tests := map[string]float64{
		"Housing":        0.30,
		"housing":        0.30,
		" Food ":         0.12,
		"Transportation": 0.15,
		"Pets":           0.03,
		"Yacht Upkeep":   DefaultPercentage,
	}
	for name, want := range tests {
		if got := CategoryPercentage(name); got != want {
			t.Errorf("CategoryPercentage(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestSavingsPercentageUsesCanonicalTable(t *testing.T) {
	if got := SavingsPercentage("Retirement"); got != 0.15 {
		t.Fatalf("Retirement = %v, want 0.15", got)
	}
	// Names only present in the non-canonical table fall back to the default.
	for _, name := range []string{"Emergency Savings", "Travel Fund", "Fitness"} {
		if got := SavingsPercentage(name); got != DefaultPercentage {
			t.Errorf("SavingsPercentage(%q) = %v, want default", name, got)
		}
	}
}

func TestRecommendedSavings(t *testing.T) {
	if got := RecommendedSavings("Vacation", 3000); math.Abs(got-150) > 1e-9 {
		t.Fatalf("Vacation @ 3000 = %v, want 150", got)
	}
}

func TestPercentageForDebtIsZero(t *testing.T) {
	c := model.Category{Name: "Housing", Type: model.Debt}
	if got := PercentageFor(c); got != 0 {
		t.Fatalf("PercentageFor(debt) = %v, want 0", got)
	}
}

func TestKnownNamesSorted(t *testing.T) {
	names := KnownNames(model.Saving)
	if len(names) != 14 {
		t.Fatalf("len = %d, want 14", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted at %d: %q > %q", i, names[i-1], names[i])
		}
	}
	if KnownNames(model.Debt) != nil {
		t.Fatal("debt has no table")
	}
}
