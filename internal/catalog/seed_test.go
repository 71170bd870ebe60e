package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/model"
)

func TestDefaultsSubcategoryPercentages(t *testing.T) {
	for _, c := range Defaults() {
		require.NoError(t, Validate(c), c.Name)
		if c.Type != model.Need && c.Type != model.Want {
			assert.Empty(t, c.Subcategories, c.Name)
			continue
		}
		var sum float64
		for _, s := range c.Subcategories {
			sum += s.AllocationPercentage
		}
		assert.InDelta(t, 100, sum, 1e-9, c.Name)
	}
}

func TestDefaultsCoverTables(t *testing.T) {
	defs := Defaults()
	for _, typ := range []model.CategoryType{model.Need, model.Saving} {
		for _, name := range budget.KnownNames(typ) {
			_, ok := Find(defs, name)
			assert.True(t, ok, "missing default for %s", name)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := Seed(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, len(Defaults()), n)

	n, err = Seed(ctx, m)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := NewMemory()
	due := time.Date(2026, 6, 1, 0, 0, 0, 0, time.Local)
	_, err := src.AddCategory(ctx, model.Category{
		Name: "Credit Card", Type: model.Debt, Priority: 1, Selected: true,
		Amount: model.Float(1200), DueDate: &due,
	})
	require.NoError(t, err)
	_, err = src.AddCategory(ctx, model.Category{
		Name: "Food", Type: model.Need, Priority: 2, Selected: true,
		Subcategories: []model.Subcategory{
			{Name: "Groceries", AllocationPercentage: 90, Amount: model.Float(400), Selected: true},
			{Name: "Snacks", AllocationPercentage: 10},
		},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, src, &buf))
	assert.Contains(t, buf.String(), "[[category.subcategory]]")

	dst := NewMemory()
	res, err := Import(ctx, dst, &buf, false)
	require.NoError(t, err)
	assert.Equal(t, ImportResult{Added: 2}, res)

	cats, err := dst.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)

	card := cats[0]
	assert.Equal(t, model.Debt, card.Type)
	require.NotNil(t, card.DueDate)
	assert.True(t, card.DueDate.Equal(due))
	assert.InDelta(t, 1200, *card.Amount, 1e-9)

	food := cats[1]
	require.Len(t, food.Subcategories, 2)
	assert.True(t, food.Subcategories[0].Selected)
	assert.Nil(t, food.Subcategories[1].Amount)
	assert.Equal(t, food.ID, food.Subcategories[0].CategoryID)
}

func TestImportSkipsOrReplacesExisting(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.AddCategory(ctx, model.Category{Name: "Pets", Type: model.Want})
	require.NoError(t, err)

	doc := `
[[category]]
name = "Pets"
type = "wants"
priority = 4
selected = true
`
	res, err := Import(ctx, m, strings.NewReader(doc), false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)

	res, err = Import(ctx, m, strings.NewReader(doc), true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replaced)

	cats, _ := m.Categories(ctx)
	require.Len(t, cats, 1)
	assert.True(t, cats[0].Selected)
	assert.Equal(t, 4, cats[0].Priority)
}

func TestImportRejectsBadType(t *testing.T) {
	doc := `
[[category]]
name = "Yacht"
type = "luxury"
`
	_, err := Import(context.Background(), NewMemory(), strings.NewReader(doc), false)
	assert.Error(t, err)
}
