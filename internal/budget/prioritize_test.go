package budget

import (
	"testing"

	"github.com/theirongolddev/paysplit/internal/model"
)

func savingCat(id, name string, priority int, amount float64, selected bool) model.Category {
	return model.Category{
		ID: id, Name: name, Type: model.Saving, Priority: priority,
		Amount: model.Float(amount), Selected: selected,
	}
}

func TestPrioritizeDeficitHighlightsLeastImportantFirst(t *testing.T) {
	cats := []model.Category{
		savingCat("one", "Emergency Fund", 1, 100, true),
		savingCat("two", "Retirement", 2, 100, true),
		savingCat("three", "Vacation", 3, 100, true),
	}
	e := newTestEngine(250, Monthly)
	e.Compute(cats)
	plan := e.Prioritize(cats)

	approx(t, "balance", plan.Balance, -50)
	if !plan.Deficit() {
		t.Fatal("expected a deficit")
	}
	if len(plan.Highlighted) != 1 || plan.Highlighted[0].ID != "three" {
		t.Fatalf("highlighted = %v, want only three", ids(plan.Highlighted))
	}
	if len(plan.Additions) != 0 {
		t.Fatal("deficit plan should not propose additions")
	}
}

func TestPrioritizeDeficitWalksUntilCovered(t *testing.T) {
	cats := []model.Category{
		savingCat("one", "Emergency Fund", 1, 100, true),
		savingCat("two", "Retirement", 2, 100, true),
		savingCat("three", "Vacation", 3, 100, true),
	}
	e := newTestEngine(120, Monthly)
	e.Compute(cats)
	plan := e.Prioritize(cats)

	got := ids(plan.Highlighted)
	if len(got) != 2 || got[0] != "three" || got[1] != "two" {
		t.Fatalf("highlighted = %v, want [three two]", got)
	}
}

func TestPrioritizeDeficitSkipsEmptyAllocations(t *testing.T) {
	cats := []model.Category{
		savingCat("one", "Emergency Fund", 1, 300, true),
		savingCat("zero", "Vacation", 9, 0, true),
	}
	e := newTestEngine(200, Monthly)
	e.Compute(cats)
	plan := e.Prioritize(cats)

	got := ids(plan.Highlighted)
	if len(got) != 1 || got[0] != "one" {
		t.Fatalf("highlighted = %v, want [one]", got)
	}
}

func TestPrioritizeBalanceIgnoresSubcategoryEntries(t *testing.T) {
	e := newTestEngine(2000, Monthly)
	cats := []model.Category{housing()}
	e.Compute(cats)
	approx(t, "balance", e.Balance(cats), 2000-1025)
}

func TestPrioritizeSurplusProposesAdditions(t *testing.T) {
	cats := []model.Category{
		savingCat("sel", "Vacation", 1, 100, true),
		{ID: "debt", Name: "Car Loan", Type: model.Debt, Priority: 0},
		{ID: "housing", Name: "Housing", Type: model.Need, Priority: 1},
		{ID: "food", Name: "Food", Type: model.Need, Priority: 2},
		savingCat("retire", "Retirement", 3, 0, false),
		{ID: "pets", Name: "Pets", Type: model.Want, Priority: 4},
	}
	e := newTestEngine(1000, Monthly)
	e.Compute(cats)
	plan := e.Prioritize(cats)

	approx(t, "balance", plan.Balance, 900)
	if plan.Deficit() {
		t.Fatal("expected surplus")
	}
	if len(plan.Additions) != MaxAdditions {
		t.Fatalf("additions = %d, want %d", len(plan.Additions), MaxAdditions)
	}
	wantIDs := []string{"housing", "food", "retire"}
	wantAmounts := []float64{300, 120, 150}
	for i, add := range plan.Additions {
		if add.Category.ID != wantIDs[i] {
			t.Errorf("addition %d = %s, want %s", i, add.Category.ID, wantIDs[i])
		}
		approx(t, add.Category.ID, add.Amount, wantAmounts[i])
	}
}

func TestPrioritizeSurplusCapsAtBalance(t *testing.T) {
	cats := []model.Category{
		savingCat("sel", "Vacation", 1, 4900, true),
		{ID: "housing", Name: "Housing", Type: model.Need, Priority: 1},
	}
	e := newTestEngine(5000, Monthly)
	e.Compute(cats)
	plan := e.Prioritize(cats)

	if len(plan.Additions) != 1 {
		t.Fatalf("additions = %d, want 1", len(plan.Additions))
	}
	approx(t, "capped", plan.Additions[0].Amount, 100)
}

func ids(cats []model.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.ID
	}
	return out
}
