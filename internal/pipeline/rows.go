package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/model"
)

// View selects which allocation map a table or chart shows.
type View string

const (
	ViewEntered     View = "entered"
	ViewRecommended View = "recommended"
	ViewPerfect     View = "perfect"
)

// Views lists every view in display order.
var Views = []View{ViewEntered, ViewRecommended, ViewPerfect}

// ParseView parses a view name. "budget" and "allocations" mean entered.
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "entered", "budget", "allocations":
		return ViewEntered, nil
	case "recommended", "recommend":
		return ViewRecommended, nil
	case "perfect", "ideal":
		return ViewPerfect, nil
	}
	return "", fmt.Errorf("unknown view %q (want entered, recommended or perfect)", s)
}

// Title is the heading shown for the view.
func (v View) Title() string {
	switch v {
	case ViewRecommended:
		return "Recommended Budget"
	case ViewPerfect:
		return "Perfect Budget"
	}
	return "Your Budget"
}

// Totals picks the per-type totals for v out of s.
func (v View) Totals(s budget.Summary) budget.TypeTotals {
	switch v {
	case ViewRecommended:
		return s.Recommended
	case ViewPerfect:
		return s.Perfect
	}
	return s.Entered
}

// Row is one line of a budget table. Subcategory rows follow their category.
type Row struct {
	ID          string
	Name        string
	Type        model.CategoryType
	Priority    int
	Sub         bool
	Entered     float64
	Recommended float64
	Perfect     float64
	Highlighted bool
}

// Value returns the row's amount for v.
func (r Row) Value(v View) float64 {
	switch v {
	case ViewRecommended:
		return r.Recommended
	case ViewPerfect:
		return r.Perfect
	}
	return r.Entered
}

// BuildRows flattens the selected categories into table rows grouped by type
// and sorted by priority within each type.
func BuildRows(res *Result) []Row {
	highlighted := make(map[string]bool, len(res.Plan.Highlighted))
	for _, c := range res.Plan.Highlighted {
		highlighted[c.ID] = true
	}

	selected := res.Selected()
	sort.SliceStable(selected, func(i, j int) bool {
		ti, tj := typeRank(selected[i].Type), typeRank(selected[j].Type)
		if ti != tj {
			return ti < tj
		}
		return selected[i].Priority < selected[j].Priority
	})

	snap := res.Snapshot
	var rows []Row
	for _, c := range selected {
		rows = append(rows, Row{
			ID:          c.ID,
			Name:        c.Name,
			Type:        c.Type,
			Priority:    c.Priority,
			Entered:     snap.Allocations[c.ID],
			Recommended: snap.Recommended[c.ID],
			Perfect:     snap.Perfect[c.ID],
			Highlighted: highlighted[c.ID],
		})
		for _, s := range c.SelectedSubcategories() {
			rows = append(rows, Row{
				ID:          s.ID,
				Name:        s.Name,
				Type:        c.Type,
				Priority:    s.Priority,
				Sub:         true,
				Entered:     snap.Allocations[s.ID],
				Recommended: snap.Recommended[s.ID],
				Perfect:     snap.Perfect[s.ID],
			})
		}
	}
	return rows
}

// CategoryRows drops subcategory rows.
func CategoryRows(rows []Row) []Row {
	var out []Row
	for _, r := range rows {
		if !r.Sub {
			out = append(out, r)
		}
	}
	return out
}

func typeRank(t model.CategoryType) int {
	for i, ct := range model.CategoryTypes {
		if ct == t {
			return i
		}
	}
	return len(model.CategoryTypes)
}
