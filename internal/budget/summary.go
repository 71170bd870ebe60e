package budget

import "github.com/theirongolddev/paysplit/internal/model"

// TypeTotals sums category-level entries per category type.
type TypeTotals map[model.CategoryType]float64

// Total sums every type.
func (t TypeTotals) Total() float64 {
	var sum float64
	for _, v := range t {
		sum += v
	}
	return sum
}

// Summary is the per-type breakdown of all three budgets.
type Summary struct {
	Paycheck      float64    `json:"paycheck"`
	MonthlyIncome float64    `json:"monthly_income"`
	Cadence       Cadence    `json:"cadence"`
	Entered       TypeTotals `json:"entered"`
	Recommended   TypeTotals `json:"recommended"`
	Perfect       TypeTotals `json:"perfect"`
}

// Summarize totals each map by category type over the selected categories.
func (e *Engine) Summarize(categories []model.Category) Summary {
	selected := model.Selected(categories)
	return Summary{
		Paycheck:      e.paycheck,
		MonthlyIncome: e.MonthlyIncome(),
		Cadence:       e.cadence,
		Entered:       totalsByType(e.allocations, selected),
		Recommended:   totalsByType(e.recommended, selected),
		Perfect:       totalsByType(e.perfect, selected),
	}
}

func totalsByType(a model.Allocations, categories []model.Category) TypeTotals {
	out := make(TypeTotals)
	for _, c := range categories {
		if v, ok := a[c.ID]; ok {
			out[c.Type] += v
		}
	}
	return out
}
