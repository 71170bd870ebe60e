package charts

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/model"
	"github.com/theirongolddev/paysplit/internal/pipeline"
)

var pngMagic = []byte("\x89PNG")

func testResult(t *testing.T, selected bool) *pipeline.Result {
	t.Helper()
	ctx := context.Background()
	cat := catalog.NewMemory()
	for _, c := range []model.Category{
		{Name: "Housing", Type: model.Need, Selected: selected, Subcategories: []model.Subcategory{
			{Name: "Rent", AllocationPercentage: 100, Amount: model.Float(1100), Selected: true},
		}},
		{Name: "Vacation", Type: model.Saving, Selected: selected, Amount: model.Float(150)},
		{Name: "Pets", Type: model.Want, Selected: selected, Subcategories: []model.Subcategory{
			{Name: "Vet", AllocationPercentage: 100, Amount: model.Float(60), Selected: true},
		}},
	} {
		if _, err := cat.AddCategory(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	res, err := pipeline.NewPlanner(cat, budget.New(3000, budget.Monthly)).Refresh(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestPieRendersPNG(t *testing.T) {
	res := testResult(t, true)
	for _, v := range pipeline.Views {
		img, err := Pie(res, v)
		if err != nil {
			t.Fatalf("%s: %v", v, err)
		}
		if !bytes.HasPrefix(img, pngMagic) {
			t.Fatalf("%s: output is not a PNG", v)
		}
	}
}

func TestPieNoData(t *testing.T) {
	_, err := Pie(testResult(t, false), pipeline.ViewEntered)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestComparisonRendersPNG(t *testing.T) {
	res := testResult(t, true)
	img, err := Comparison(res.Summary)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(img, pngMagic) {
		t.Fatal("output is not a PNG")
	}
}
