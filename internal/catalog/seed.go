package catalog

import (
	"context"
	"fmt"

	"github.com/theirongolddev/paysplit/internal/model"
)

type seedSub struct {
	name string
	pct  float64
}

type seedCategory struct {
	name string
	typ  model.CategoryType
	subs []seedSub
}

// Every need/want entry lists subcategories whose percentages add up to 100.
var defaults = []seedCategory{
	{"Credit Card", model.Debt, nil},
	{"Student Loan", model.Debt, nil},
	{"Car Loan", model.Debt, nil},
	{"Medical Debt", model.Debt, nil},
	{"Personal Loan", model.Debt, nil},

	{"Housing", model.Need, []seedSub{{"Rent or Mortgage", 80}, {"Home Insurance", 10}, {"Maintenance", 10}}},
	{"Utilities", model.Need, []seedSub{{"Electricity", 35}, {"Water", 15}, {"Gas", 15}, {"Internet", 20}, {"Phone", 15}}},
	{"Food", model.Need, []seedSub{{"Groceries", 85}, {"Household Supplies", 15}}},
	{"Transportation", model.Need, []seedSub{{"Fuel", 40}, {"Auto Insurance", 30}, {"Public Transit", 15}, {"Repairs", 15}}},
	{"Healthcare", model.Need, []seedSub{{"Health Insurance", 60}, {"Prescriptions", 20}, {"Doctor Visits", 20}}},
	{"Education", model.Need, []seedSub{{"Tuition", 70}, {"Books and Supplies", 30}}},

	{"Personal Care", model.Want, []seedSub{{"Haircuts", 40}, {"Toiletries", 35}, {"Gym", 25}}},
	{"Entertainment", model.Want, []seedSub{{"Dining Out", 40}, {"Movies and Events", 30}, {"Hobbies", 30}}},
	{"Subscriptions", model.Want, []seedSub{{"Streaming", 50}, {"Music", 25}, {"Software", 25}}},
	{"Pets", model.Want, []seedSub{{"Pet Food", 50}, {"Vet", 35}, {"Grooming", 15}}},

	{"Emergency Fund", model.Saving, nil},
	{"Retirement", model.Saving, nil},
	{"Investment", model.Saving, nil},
	{"House Down Payment", model.Saving, nil},
	{"College Fund", model.Saving, nil},
	{"Business Investment", model.Saving, nil},
	{"Home Renovation", model.Saving, nil},
	{"Vacation", model.Saving, nil},
	{"New Car", model.Saving, nil},
	{"Wedding", model.Saving, nil},
	{"Education Fund", model.Saving, nil},
	{"Charity", model.Saving, nil},
	{"Gadgets", model.Saving, nil},
	{"Clothing Fund", model.Saving, nil},
}

// Defaults returns the built-in categories, unselected and without IDs.
// Priorities follow list order within each type, starting at 1.
func Defaults() []model.Category {
	out := make([]model.Category, 0, len(defaults))
	prio := make(map[model.CategoryType]int)
	for _, d := range defaults {
		prio[d.typ]++
		c := model.Category{
			Name:     d.name,
			Type:     d.typ,
			Priority: prio[d.typ],
		}
		for i, s := range d.subs {
			c.Subcategories = append(c.Subcategories, model.Subcategory{
				Name:                 s.name,
				Priority:             i + 1,
				AllocationPercentage: s.pct,
				Selected:             true,
			})
		}
		out = append(out, c)
	}
	return out
}

// Seed adds every default category whose name is not already in cat and
// returns how many were added.
func Seed(ctx context.Context, cat Catalog) (int, error) {
	existing, err := cat.Categories(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing categories: %w", err)
	}

	var added int
	for _, c := range Defaults() {
		if _, ok := Find(existing, c.Name); ok {
			continue
		}
		if _, err := cat.AddCategory(ctx, c); err != nil {
			return added, fmt.Errorf("seeding %s: %w", c.Name, err)
		}
		added++
	}
	return added, nil
}
