package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/model"
)

func newTestPlanner(t *testing.T, paycheck float64) (*Planner, *catalog.Memory) {
	t.Helper()
	cat := catalog.NewMemory()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	engine := budget.New(paycheck, budget.Monthly, budget.WithClock(func() time.Time { return now }))
	return NewPlanner(cat, engine), cat
}

func TestPlannerRefresh(t *testing.T) {
	ctx := context.Background()
	p, cat := newTestPlanner(t, 3000)

	_, err := cat.AddCategory(ctx, model.Category{
		Name: "Housing", Type: model.Need, Priority: 1, Selected: true,
		Subcategories: []model.Subcategory{
			{Name: "Rent", AllocationPercentage: 100, Amount: model.Float(1200), Selected: true},
		},
	})
	require.NoError(t, err)
	_, err = cat.AddCategory(ctx, model.Category{Name: "Pets", Type: model.Want, Priority: 2})
	require.NoError(t, err)

	res, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1800, res.Plan.Balance, 1e-9)
	require.Len(t, res.Plan.Additions, 1)
	assert.Equal(t, "Pets", res.Plan.Additions[0].Category.Name)
	assert.InDelta(t, 90, res.Plan.Additions[0].Amount, 1e-9)
	assert.InDelta(t, 1200, res.Summary.Entered[model.Need], 1e-9)
	assert.Same(t, res, p.Last())
}

func TestPlannerDeleteCascades(t *testing.T) {
	ctx := context.Background()
	p, cat := newTestPlanner(t, 3000)

	c, err := cat.AddCategory(ctx, model.Category{
		Name: "Food", Type: model.Need, Selected: true,
		Subcategories: []model.Subcategory{
			{Name: "Groceries", AllocationPercentage: 100, Amount: model.Float(300), Selected: true},
		},
	})
	require.NoError(t, err)
	_, err = p.Refresh(ctx)
	require.NoError(t, err)

	var events []budget.Event
	p.Subscribe(func(ev budget.Event) { events = append(events, ev) })

	removed, err := p.DeleteCategory(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", removed.Name)

	require.Len(t, events, 1)
	assert.Equal(t, budget.EventRemoved, events[0].Type)
	assert.ElementsMatch(t, c.EntityIDs(), events[0].Removed)
	for _, m := range []model.Allocations{events[0].Snapshot.Allocations, events[0].Snapshot.Recommended, events[0].Snapshot.Perfect} {
		assert.Empty(t, m)
	}

	_, err = p.DeleteCategory(ctx, c.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestPlannerLastAfterDelete(t *testing.T) {
	ctx := context.Background()
	p, cat := newTestPlanner(t, 3000)

	food, err := cat.AddCategory(ctx, model.Category{
		Name: "Food", Type: model.Need, Selected: true,
		Subcategories: []model.Subcategory{
			{Name: "Groceries", AllocationPercentage: 100, Amount: model.Float(200), Selected: true},
		},
	})
	require.NoError(t, err)
	_, err = cat.AddCategory(ctx, model.Category{Name: "Vacation", Type: model.Saving, Selected: true, Amount: model.Float(100)})
	require.NoError(t, err)

	before, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2700, before.Plan.Balance, 1e-9)

	_, err = p.DeleteCategory(ctx, food.ID)
	require.NoError(t, err)

	last := p.Last()
	require.NotNil(t, last)
	require.Len(t, last.Categories, 1)
	assert.Equal(t, "Vacation", last.Categories[0].Name)
	for _, id := range food.EntityIDs() {
		assert.NotContains(t, last.Snapshot.Allocations, id)
		assert.NotContains(t, last.Snapshot.Recommended, id)
		assert.NotContains(t, last.Snapshot.Perfect, id)
	}
	assert.InDelta(t, 2900, last.Plan.Balance, 1e-9)
	assert.Zero(t, last.Summary.Entered[model.Need])
	assert.Len(t, before.Categories, 2, "earlier results are not rewritten")
}

func TestPlannerDeleteCategoryAt(t *testing.T) {
	ctx := context.Background()
	p, cat := newTestPlanner(t, 1000)
	_, err := cat.AddCategory(ctx, model.Category{Name: "Vacation", Type: model.Saving, Selected: true})
	require.NoError(t, err)

	_, err = p.DeleteCategoryAt(ctx, 3)
	assert.ErrorIs(t, err, catalog.ErrInvalidPosition)

	c, err := p.DeleteCategoryAt(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Vacation", c.Name)
}

func TestPlannerRemoveSubcategory(t *testing.T) {
	ctx := context.Background()
	p, cat := newTestPlanner(t, 2000)
	c, err := cat.AddCategory(ctx, model.Category{
		Name: "Utilities", Type: model.Need, Selected: true,
		Subcategories: []model.Subcategory{
			{Name: "Water", AllocationPercentage: 50, Amount: model.Float(40), Selected: true},
			{Name: "Power", AllocationPercentage: 50, Amount: model.Float(60), Selected: true},
		},
	})
	require.NoError(t, err)
	_, err = p.Refresh(ctx)
	require.NoError(t, err)

	_, err = p.RemoveSubcategory(ctx, c.Subcategories[0].ID)
	require.NoError(t, err)

	last := p.Last()
	require.NotNil(t, last)
	require.Len(t, last.Categories, 1)
	assert.Len(t, last.Categories[0].Subcategories, 1)
	assert.InDelta(t, 60, last.Snapshot.Allocations[c.ID], 1e-9)
	assert.InDelta(t, 1940, last.Plan.Balance, 1e-9)
	assert.InDelta(t, 60, last.Summary.Entered[model.Need], 1e-9)
	assert.Len(t, c.Subcategories, 2, "caller's category must not be mutated")

	res, err := p.Refresh(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 60, res.Snapshot.Allocations[c.ID], 1e-9)
	_, ok := res.Snapshot.Allocations[c.Subcategories[0].ID]
	assert.False(t, ok)
}

func TestPlannerSetIncome(t *testing.T) {
	p, _ := newTestPlanner(t, 1000)
	p.SetIncome(500, budget.Weekly)
	pay, cad := p.Income()
	assert.InDelta(t, 500, pay, 1e-9)
	assert.Equal(t, budget.Weekly, cad)
}

func TestBuildRowsOrdering(t *testing.T) {
	ctx := context.Background()
	p, cat := newTestPlanner(t, 100)

	add := func(c model.Category) {
		_, err := cat.AddCategory(ctx, c)
		require.NoError(t, err)
	}
	add(model.Category{Name: "Retirement", Type: model.Saving, Priority: 1, Selected: true, Amount: model.Float(50)})
	add(model.Category{Name: "Food", Type: model.Need, Priority: 2, Selected: true, Subcategories: []model.Subcategory{
		{Name: "Groceries", AllocationPercentage: 100, Amount: model.Float(80), Selected: true},
	}})
	add(model.Category{Name: "Housing", Type: model.Need, Priority: 1, Selected: true})
	add(model.Category{Name: "Skipped", Type: model.Want, Priority: 1})

	res, err := p.Refresh(ctx)
	require.NoError(t, err)
	rows := BuildRows(res)

	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"Housing", "Food", "Groceries", "Retirement"}, names)
	assert.True(t, rows[2].Sub)
	assert.Len(t, CategoryRows(rows), 3)

	// 130 entered against a 100 paycheck: Food has the highest priority
	// number and covers the deficit alone.
	assert.True(t, rows[1].Highlighted)
	assert.False(t, rows[3].Highlighted)
	assert.InDelta(t, 80, rows[1].Value(ViewEntered), 1e-9)
}

func TestParseView(t *testing.T) {
	for in, want := range map[string]View{
		"":            ViewEntered,
		"Budget":      ViewEntered,
		"recommended": ViewRecommended,
		"PERFECT":     ViewPerfect,
	} {
		got, err := ParseView(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseView("sideways")
	assert.Error(t, err)
}
