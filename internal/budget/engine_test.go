package budget

import (
	"math"
	"testing"
	"time"

	"github.com/theirongolddev/paysplit/internal/model"
)

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestEngine(paycheck float64, c Cadence) *Engine {
	return New(paycheck, c, WithClock(func() time.Time { return fixedNow }))
}

func approx(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %.6f, want %.6f", label, got, want)
	}
}

func housing() model.Category {
	return model.Category{
		ID: "housing", Name: "Housing", Type: model.Need, Priority: 1, Selected: true,
		Subcategories: []model.Subcategory{
			{ID: "rent", CategoryID: "housing", Name: "Rent", AllocationPercentage: 80, Amount: model.Float(1000), Selected: true},
			{ID: "insurance", CategoryID: "housing", Name: "Renters Insurance", AllocationPercentage: 20, Amount: model.Float(25), Selected: true},
			{ID: "repairs", CategoryID: "housing", Name: "Repairs", AllocationPercentage: 0, Amount: model.Float(400), Selected: false},
		},
	}
}

func TestComputeAllocationsNeedSumsSelectedSubcategories(t *testing.T) {
	e := newTestEngine(2000, Monthly)
	e.ComputeAllocations([]model.Category{housing()})

	a := e.Allocations()
	approx(t, "rent", a["rent"], 1000)
	approx(t, "insurance", a["insurance"], 25)
	approx(t, "housing", a["housing"], 1025)
	if _, ok := a["repairs"]; ok {
		t.Fatal("unselected subcategory should have no entry")
	}
}

func TestComputeAllocationsSubcategoryWithoutAmount(t *testing.T) {
	c := model.Category{
		ID: "food", Name: "Food", Type: model.Want, Selected: true,
		Subcategories: []model.Subcategory{
			{ID: "groceries", Amount: model.Float(300), Selected: true},
			{ID: "dining", Selected: true},
		},
	}
	e := newTestEngine(2000, Monthly)
	e.ComputeAllocations([]model.Category{c})

	a := e.Allocations()
	approx(t, "dining", a["dining"], 0)
	approx(t, "food", a["food"], 300)
	if _, ok := a["dining"]; !ok {
		t.Fatal("selected subcategory without amount should still get a zero entry")
	}
}

func TestComputeAllocationsEnteredInvariant(t *testing.T) {
	cats := []model.Category{
		housing(),
		{
			ID: "fun", Name: "Entertainment", Type: model.Want, Selected: true,
			Subcategories: []model.Subcategory{
				{ID: "movies", Amount: model.Float(40), Selected: true},
				{ID: "games", Amount: model.Float(60.5), Selected: true},
			},
		},
	}
	e := newTestEngine(3000, BiWeekly)
	e.ComputeAllocations(cats)
	a := e.Allocations()

	for _, c := range cats {
		var sum float64
		for _, s := range c.SelectedSubcategories() {
			sum += a[s.ID]
		}
		approx(t, c.ID+" total", a[c.ID], sum)
	}
}

func TestComputeAllocationsDebt(t *testing.T) {
	debt := model.Category{
		ID: "card", Name: "Credit Card", Type: model.Debt, Selected: true,
		Amount:  model.Float(1200),
		DueDate: ptrTime(fixedNow.AddDate(0, 6, 0)),
	}

	e := newTestEngine(2000, Monthly)
	e.ComputeAllocations([]model.Category{debt})
	approx(t, "monthly", e.Allocations()["card"], 200)

	e.SetCadence(Weekly)
	e.ComputeAllocations([]model.Category{debt})
	approx(t, "weekly", e.Allocations()["card"], 200*12.0/52.0)

	debt.DueDate = ptrTime(fixedNow.AddDate(0, -2, 0))
	e.SetCadence(Monthly)
	e.ComputeAllocations([]model.Category{debt})
	approx(t, "past due", e.Allocations()["card"], 1200)
}

func TestComputeAllocationsDebtMissingFieldsSkipped(t *testing.T) {
	cats := []model.Category{
		{ID: "no-amount", Type: model.Debt, Selected: true, DueDate: ptrTime(fixedNow.AddDate(0, 3, 0))},
		{ID: "no-due", Type: model.Debt, Selected: true, Amount: model.Float(500)},
	}
	e := newTestEngine(2000, Monthly)
	e.ComputeAllocations(cats)
	if len(e.Allocations()) != 0 {
		t.Fatalf("allocations = %v, want empty", e.Allocations())
	}
}

func TestComputeAllocationsSavingNoCadenceConversion(t *testing.T) {
	cats := []model.Category{
		{ID: "vacation", Name: "Vacation", Type: model.Saving, Selected: true, Amount: model.Float(75)},
		{ID: "wedding", Name: "Wedding", Type: model.Saving, Selected: true},
	}
	e := newTestEngine(1000, Weekly)
	e.ComputeAllocations(cats)
	approx(t, "vacation", e.Allocations()["vacation"], 75)
	approx(t, "wedding", e.Allocations()["wedding"], 0)
}

func TestComputeAllocationsReplacesPreviousMap(t *testing.T) {
	e := newTestEngine(1000, Monthly)
	e.ComputeAllocations([]model.Category{housing()})
	e.ComputeAllocations([]model.Category{
		{ID: "vacation", Name: "Vacation", Type: model.Saving, Selected: true, Amount: model.Float(10)},
	})
	a := e.Allocations()
	if len(a) != 1 {
		t.Fatalf("allocations = %v, want only vacation", a)
	}
}

func TestComputeRecommended(t *testing.T) {
	e := newTestEngine(5000, Monthly)
	e.ComputeRecommended([]model.Category{housing()})
	r := e.Recommended()
	approx(t, "housing", r["housing"], 1500)
	approx(t, "rent", r["rent"], 1200)
	approx(t, "insurance", r["insurance"], 300)
	if _, ok := r["repairs"]; ok {
		t.Fatal("unselected subcategory should have no recommendation")
	}
}

func TestComputeRecommendedUnknownNameAndDebt(t *testing.T) {
	cats := []model.Category{
		{ID: "hobby", Name: "Model Trains", Type: model.Want, Selected: true},
		{ID: "loan", Name: "Student Loan", Type: model.Debt, Selected: true, Amount: model.Float(100)},
		{ID: "retire", Name: "Retirement", Type: model.Saving, Selected: true},
	}
	e := newTestEngine(2000, Monthly)
	e.ComputeRecommended(cats)
	r := e.Recommended()
	approx(t, "unknown", r["hobby"], 100)
	approx(t, "retirement", r["retire"], 300)
	if _, ok := r["loan"]; ok {
		t.Fatal("debt should have no recommended entry")
	}
}

func TestComputeRecommendedUsesMonthlyIncome(t *testing.T) {
	// 1000 weekly is 52000/12 a month.
	e := newTestEngine(1000, Weekly)
	e.ComputeRecommended([]model.Category{{ID: "h", Name: "Housing", Type: model.Need, Selected: true}})
	approx(t, "housing", e.Recommended()["h"], 52000.0/12*0.30)
}

func TestComputePerfect(t *testing.T) {
	cats := []model.Category{
		{ID: "debt", Name: "Car Loan", Type: model.Debt, Selected: true, Amount: model.Float(300)},
		{ID: "need", Name: "Utilities", Type: model.Need, Selected: true},
		{ID: "vacation", Name: "Vacation", Type: model.Saving, Selected: true},
	}
	e := newTestEngine(3000, Monthly)
	e.ComputePerfect(cats)
	p := e.Perfect()

	approx(t, "debt", p["debt"], 300)
	approx(t, "need", p["need"], 1350)
	approx(t, "vacation", p["vacation"], 150)
	if len(p) != 3 {
		t.Fatalf("perfect = %v, want 3 entries (no want share redistributed)", p)
	}
}

func TestComputePerfectSplitsAcrossCategoriesAndSubcategories(t *testing.T) {
	h := housing() // two selected subcategories
	cats := []model.Category{
		h,
		{ID: "transport", Name: "Transportation", Type: model.Need, Selected: true},
		{ID: "fun", Name: "Entertainment", Type: model.Want, Selected: true},
		{ID: "pets", Name: "Pets", Type: model.Want, Selected: true},
	}
	e := newTestEngine(4000, Monthly)
	e.ComputePerfect(cats)
	p := e.Perfect()

	approx(t, "housing", p["housing"], 1000)
	approx(t, "rent", p["rent"], 500)
	approx(t, "insurance", p["insurance"], 500)
	approx(t, "transport", p["transport"], 1000)
	approx(t, "fun", p["fun"], 600)
	approx(t, "pets", p["pets"], 600)
}

func TestComputePerfectDebtAboveIncome(t *testing.T) {
	cats := []model.Category{
		{ID: "debt", Type: model.Debt, Selected: true, Amount: model.Float(5000)},
		{ID: "need", Name: "Food", Type: model.Need, Selected: true},
	}
	e := newTestEngine(3000, Monthly)
	e.ComputePerfect(cats)
	approx(t, "need", e.Perfect()["need"], 0)
}

func TestComputeEmitsOneEvent(t *testing.T) {
	var events []Event
	e := New(1000, Monthly, WithClock(func() time.Time { return fixedNow }), WithListener(func(ev Event) {
		events = append(events, ev)
	}))
	e.Compute([]model.Category{housing()})

	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != EventRecomputed {
		t.Fatalf("event type = %s, want %s", events[0].Type, EventRecomputed)
	}
	approx(t, "snapshot housing", events[0].Snapshot.Allocations["housing"], 1025)
}

func TestRemoveCascadesToAllMaps(t *testing.T) {
	h := housing()
	other := model.Category{ID: "vacation", Name: "Vacation", Type: model.Saving, Selected: true, Amount: model.Float(50)}

	var removed []string
	e := newTestEngine(3000, Monthly)
	e.Subscribe(func(ev Event) {
		if ev.Type == EventRemoved {
			removed = ev.Removed
		}
	})
	e.Compute([]model.Category{h, other})
	e.Remove(h)

	for name, m := range map[string]model.Allocations{
		"allocations": e.Allocations(),
		"recommended": e.Recommended(),
		"perfect":     e.Perfect(),
	} {
		for _, id := range h.EntityIDs() {
			if _, ok := m[id]; ok {
				t.Errorf("%s still has %s after Remove", name, id)
			}
		}
		if _, ok := m["vacation"]; !ok {
			t.Errorf("%s lost unrelated category", name)
		}
	}
	if len(removed) != 4 {
		t.Fatalf("removed ids = %v, want housing + 3 subcategories", removed)
	}
}

func TestRemoveSubcategoryAdjustsParentTotal(t *testing.T) {
	h := housing()
	e := newTestEngine(3000, Monthly)
	e.Compute([]model.Category{h})

	var got Event
	e.Subscribe(func(ev Event) { got = ev })
	e.RemoveSubcategory(h.Subcategories[1])

	a := e.Allocations()
	approx(t, "housing", a["housing"], 1000)
	if _, ok := a["insurance"]; ok {
		t.Error("allocations still has insurance")
	}
	if _, ok := e.Recommended()["insurance"]; ok {
		t.Error("recommended still has insurance")
	}
	if got.Type != EventRemoved || len(got.Removed) != 1 || got.Removed[0] != "insurance" {
		t.Fatalf("event = %+v, want removal of insurance", got)
	}
	approx(t, "event housing", got.Snapshot.Allocations["housing"], 1000)

	// Unselected subcategories never counted toward the parent.
	e.RemoveSubcategory(h.Subcategories[2])
	approx(t, "housing after repairs", e.Allocations()["housing"], 1000)
}

func TestAccessorsReturnCopies(t *testing.T) {
	e := newTestEngine(1000, Monthly)
	e.Compute([]model.Category{housing()})
	a := e.Allocations()
	a["housing"] = -1
	if e.Allocations()["housing"] == -1 {
		t.Fatal("mutating the returned map changed engine state")
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	cats := []model.Category{
		housing(),
		{ID: "card", Type: model.Debt, Selected: true, Amount: model.Float(900), DueDate: ptrTime(fixedNow.AddDate(0, 4, 0))},
		{ID: "ret", Name: "Retirement", Type: model.Saving, Selected: true, Amount: model.Float(200)},
	}
	a := newTestEngine(2500, SemiMonthly)
	b := newTestEngine(2500, SemiMonthly)
	a.Compute(cats)
	b.Compute(cats)

	sa, sb := a.Snapshot(), b.Snapshot()
	if !sa.Allocations.Equal(sb.Allocations, 0) || !sa.Recommended.Equal(sb.Recommended, 0) || !sa.Perfect.Equal(sb.Perfect, 0) {
		t.Fatal("same inputs produced different outputs")
	}
}

func TestNegativePaycheckClamped(t *testing.T) {
	e := New(-50, Monthly)
	if e.Paycheck() != 0 {
		t.Fatalf("paycheck = %v, want 0", e.Paycheck())
	}
}

func TestSummarize(t *testing.T) {
	cats := []model.Category{
		housing(),
		{ID: "vacation", Name: "Vacation", Type: model.Saving, Selected: true, Amount: model.Float(100)},
		{ID: "off", Name: "Pets", Type: model.Want, Selected: false},
	}
	e := newTestEngine(3000, Monthly)
	e.Compute(cats)
	s := e.Summarize(cats)

	approx(t, "entered need", s.Entered[model.Need], 1025)
	approx(t, "entered saving", s.Entered[model.Saving], 100)
	approx(t, "entered total", s.Entered.Total(), 1125)
	approx(t, "recommended need", s.Recommended[model.Need], 900)
	if _, ok := s.Perfect[model.Want]; ok {
		t.Fatal("unselected want should not appear in totals")
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
