package budget

import "github.com/theirongolddev/paysplit/internal/model"

// ComputeAllocations rebuilds the entered budget.
//
// Debt needs both an amount and a due date; the amount is spread over the
// months left and converted to the pay cadence. Savings use the stored amount
// as-is. Needs and wants are the sum of their selected subcategories, each of
// which also gets its own entry.
func (e *Engine) ComputeAllocations(categories []model.Category) {
	e.allocations = make(model.Allocations)
	now := e.now()

	for _, c := range categories {
		if !c.Selected {
			continue
		}
		switch c.Type {
		case model.Debt:
			if c.Amount == nil || c.DueDate == nil {
				continue
			}
			monthly := MonthlyPayment(*c.Amount, now, *c.DueDate)
			e.allocations[c.ID] = ToPerPaycheck(monthly, e.cadence)

		case model.Saving:
			e.allocations[c.ID] = model.AmountOr(c.Amount, 0)

		case model.Need, model.Want:
			var total float64
			for _, s := range c.SelectedSubcategories() {
				amount := model.AmountOr(s.Amount, 0)
				e.allocations[s.ID] = amount
				total += amount
			}
			e.allocations[c.ID] = total
		}
	}
}
