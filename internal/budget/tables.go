package budget

import (
	"sort"
	"strings"

	"github.com/theirongolddev/paysplit/internal/model"
)

// DefaultPercentage applies to any category name missing from a table.
const DefaultPercentage = 0.05

// Fractions of monthly income recommended for need and want categories.
var categoryPercentages = map[string]float64{
	"Housing":        0.30,
	"Transportation": 0.15,
	"Food":           0.12,
	"Healthcare":     0.10,
	"Utilities":      0.08,
	"Personal Care":  0.05,
	"Entertainment":  0.05,
	"Subscriptions":  0.03,
	"Education":      0.05,
	"Pets":           0.03,
}

// Fractions of income recommended for saving categories.
var savingsPercentages = map[string]float64{
	"Emergency Fund":      0.10,
	"Vacation":            0.05,
	"New Car":             0.05,
	"Home Renovation":     0.07,
	"Investment":          0.10,
	"Wedding":             0.05,
	"Education Fund":      0.05,
	"Retirement":          0.15,
	"House Down Payment":  0.10,
	"College Fund":        0.10,
	"Gadgets":             0.03,
	"Charity":             0.05,
	"Business Investment": 0.10,
	"Clothing Fund":       0.03,
}

var (
	categoryIndex = foldKeys(categoryPercentages)
	savingsIndex  = foldKeys(savingsPercentages)
)

func foldKeys(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func lookup(index map[string]float64, name string) float64 {
	if p, ok := index[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return DefaultPercentage
}

// CategoryPercentage returns the need/want table fraction for name.
// Matching ignores case and surrounding whitespace.
func CategoryPercentage(name string) float64 {
	return lookup(categoryIndex, name)
}

// SavingsPercentage returns the savings table fraction for name.
func SavingsPercentage(name string) float64 {
	return lookup(savingsIndex, name)
}

// RecommendedSavings is income scaled by the savings table entry for name.
func RecommendedSavings(name string, income float64) float64 {
	return income * SavingsPercentage(name)
}

// PercentageFor returns the table fraction that applies to c. Debt has no
// recommended share.
func PercentageFor(c model.Category) float64 {
	switch c.Type {
	case model.Need, model.Want:
		return CategoryPercentage(c.Name)
	case model.Saving:
		return SavingsPercentage(c.Name)
	}
	return 0
}

// KnownNames returns the table names for a category type, used to seed the
// catalog and to suggest names in forms.
func KnownNames(t model.CategoryType) []string {
	var src map[string]float64
	switch t {
	case model.Need, model.Want:
		src = categoryPercentages
	case model.Saving:
		src = savingsPercentages
	default:
		return nil
	}
	names := make([]string, 0, len(src))
	for k := range src {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
