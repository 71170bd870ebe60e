package budget

import (
	"sort"

	"github.com/theirongolddev/paysplit/internal/model"
)

// MaxAdditions caps how many categories a surplus plan proposes.
const MaxAdditions = 3

// Addition is an unselected category proposed for a surplus, previewed at its
// recommended amount capped at the surplus.
type Addition struct {
	Category model.Category
	Amount   float64
}

// Plan is the deficit/surplus outcome for the current entered budget.
type Plan struct {
	Balance     float64 // paycheck minus entered total; negative is a deficit
	Highlighted []model.Category
	Additions   []Addition
}

// Deficit reports whether allocations exceed the paycheck.
func (p Plan) Deficit() bool { return p.Balance < 0 }

// Balance returns the paycheck minus the entered category totals. Only
// category-level entries are summed; subcategory entries are already part of
// their parent's total.
func (e *Engine) Balance(categories []model.Category) float64 {
	return e.paycheck - e.allocations.Total(model.Selected(categories))
}

// Prioritize builds a Plan from the entered budget. It reads the maps
// produced by the last ComputeAllocations and takes the whole catalog so it
// can propose unselected categories.
//
// On a deficit, selected categories are walked from the least important
// (highest priority number) up, each one with a positive allocation being
// highlighted until the highlighted amounts cover the deficit. On a surplus,
// up to MaxAdditions unselected non-debt categories are proposed, most
// important first.
func (e *Engine) Prioritize(catalog []model.Category) Plan {
	plan := Plan{Balance: e.Balance(catalog)}

	if plan.Deficit() {
		ordered := model.Selected(catalog)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Priority > ordered[j].Priority
		})

		remaining := -plan.Balance
		for _, c := range ordered {
			if remaining <= 0 {
				break
			}
			amount := e.allocations[c.ID]
			if amount <= 0 {
				continue
			}
			plan.Highlighted = append(plan.Highlighted, c)
			remaining -= amount
		}
		return plan
	}

	var candidates []model.Category
	for _, c := range catalog {
		if !c.Selected && c.Type != model.Debt {
			candidates = append(candidates, c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	for _, c := range candidates {
		if len(plan.Additions) == MaxAdditions {
			break
		}
		plan.Additions = append(plan.Additions, Addition{
			Category: c,
			Amount:   min(e.RecommendedAmount(c), plan.Balance),
		})
	}
	return plan
}
