package budget

import "github.com/theirongolddev/paysplit/internal/model"

// ComputeRecommended rebuilds the recommended budget from the percentage
// tables, scaled to monthly income. Debt gets no entry.
func (e *Engine) ComputeRecommended(categories []model.Category) {
	e.recommended = make(model.Allocations)
	income := e.MonthlyIncome()

	for _, c := range categories {
		if !c.Selected {
			continue
		}
		switch c.Type {
		case model.Need, model.Want:
			amount := income * CategoryPercentage(c.Name)
			e.recommended[c.ID] = amount
			for _, s := range c.SelectedSubcategories() {
				e.recommended[s.ID] = amount * (s.AllocationPercentage / 100)
			}
		case model.Saving:
			e.recommended[c.ID] = RecommendedSavings(c.Name, income)
		}
	}
}

// RecommendedAmount returns the recommended category-level amount for c at
// the current income, whether or not c is selected.
func (e *Engine) RecommendedAmount(c model.Category) float64 {
	return e.MonthlyIncome() * PercentageFor(c)
}
