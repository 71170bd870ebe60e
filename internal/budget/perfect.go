package budget

import "github.com/theirongolddev/paysplit/internal/model"

// TargetRatios split what is left after debt between needs, wants and
// savings.
var TargetRatios = map[model.CategoryType]float64{
	model.Need:   0.50,
	model.Want:   0.30,
	model.Saving: 0.20,
}

// ComputePerfect rebuilds the perfect budget.
//
// Debt keeps its stored amount and is taken off the paycheck first. Each
// need/want type shares its ratio of the remainder evenly across its
// categories, then across each category's selected subcategories. Savings
// use the savings table against the raw paycheck, not the remainder. A type
// with no selected categories leaves its share unallocated.
func (e *Engine) ComputePerfect(categories []model.Category) {
	e.perfect = make(model.Allocations)

	remaining := e.paycheck
	byType := make(map[model.CategoryType][]model.Category)
	for _, c := range categories {
		if !c.Selected {
			continue
		}
		if c.Type == model.Debt {
			amount := model.AmountOr(c.Amount, 0)
			e.perfect[c.ID] = amount
			remaining -= amount
			continue
		}
		byType[c.Type] = append(byType[c.Type], c)
	}
	remaining = max(0, remaining)

	for _, t := range []model.CategoryType{model.Need, model.Want, model.Saving} {
		cats := byType[t]
		if len(cats) == 0 {
			continue
		}

		if t == model.Saving {
			for _, c := range cats {
				e.perfect[c.ID] = RecommendedSavings(c.Name, e.paycheck)
			}
			continue
		}

		share := remaining * TargetRatios[t] / float64(len(cats))
		for _, c := range cats {
			e.perfect[c.ID] = share
			subs := c.SelectedSubcategories()
			if len(subs) == 0 {
				continue
			}
			each := share / float64(len(subs))
			for _, s := range subs {
				e.perfect[s.ID] = each
			}
		}
	}
}
