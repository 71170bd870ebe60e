// Package model defines the budget catalog entities shared by the engine, the
// catalog stores and the presentation layers.
package model

import (
	"fmt"
	"strings"
	"time"
)

// CategoryType is the budgeting bucket a category belongs to.
type CategoryType string

const (
	// Debt categories are paid down by a due date.
	Debt CategoryType = "debt"
	// Need categories cover essential spending.
	Need CategoryType = "need"
	// Want categories cover discretionary spending.
	Want CategoryType = "want"
	// Saving categories are set aside for goals.
	Saving CategoryType = "saving"
)

// CategoryTypes lists every type in display order.
var CategoryTypes = []CategoryType{Debt, Need, Want, Saving}

// Valid reports whether t is one of the known category types.
func (t CategoryType) Valid() bool {
	switch t {
	case Debt, Need, Want, Saving:
		return true
	}
	return false
}

// Label returns a capitalized display name.
func (t CategoryType) Label() string {
	switch t {
	case Debt:
		return "Debt"
	case Need:
		return "Needs"
	case Want:
		return "Wants"
	case Saving:
		return "Savings"
	}
	return string(t)
}

// ParseCategoryType parses a type name, case-insensitively. Plural forms
// ("needs", "savings") are accepted.
func ParseCategoryType(s string) (CategoryType, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "debts":
		v = "debt"
	case "needs":
		v = "need"
	case "wants":
		v = "want"
	case "savings":
		v = "saving"
	}
	t := CategoryType(v)
	if !t.Valid() {
		return "", fmt.Errorf("unknown category type %q", s)
	}
	return t, nil
}

// Category is a top-level budget line. A category exclusively owns its
// subcategories.
type Category struct {
	ID            string
	Name          string
	Type          CategoryType
	Priority      int // lower is more important
	Amount        *float64
	DueDate       *time.Time // debt only
	Subcategories []Subcategory
	Selected      bool
}

// Subcategory is a component of a need or want category.
type Subcategory struct {
	ID         string
	CategoryID string
	Name       string
	Priority   int
	Amount     *float64
	// AllocationPercentage is the share of the parent's recommended amount,
	// on a 0-100 scale.
	AllocationPercentage float64
	Selected             bool
}

// SelectedSubcategories returns the selected subcategories in catalog order.
func (c Category) SelectedSubcategories() []Subcategory {
	var out []Subcategory
	for _, s := range c.Subcategories {
		if s.Selected {
			out = append(out, s)
		}
	}
	return out
}

// Subcategory looks up an owned subcategory by ID.
func (c Category) Subcategory(id string) (Subcategory, bool) {
	for _, s := range c.Subcategories {
		if s.ID == id {
			return s, true
		}
	}
	return Subcategory{}, false
}

// EntityIDs returns the category ID followed by every subcategory ID.
func (c Category) EntityIDs() []string {
	ids := make([]string, 0, len(c.Subcategories)+1)
	ids = append(ids, c.ID)
	for _, s := range c.Subcategories {
		ids = append(ids, s.ID)
	}
	return ids
}

// Clone returns a deep copy so callers can mutate it without touching the
// catalog's copy.
func (c Category) Clone() Category {
	out := c
	if c.Amount != nil {
		out.Amount = Float(*c.Amount)
	}
	if c.DueDate != nil {
		d := *c.DueDate
		out.DueDate = &d
	}
	if c.Subcategories != nil {
		out.Subcategories = make([]Subcategory, len(c.Subcategories))
		for i, s := range c.Subcategories {
			if s.Amount != nil {
				s.Amount = Float(*s.Amount)
			}
			out.Subcategories[i] = s
		}
	}
	return out
}

// Selected filters categories down to the selected ones.
func Selected(categories []Category) []Category {
	var out []Category
	for _, c := range categories {
		if c.Selected {
			out = append(out, c)
		}
	}
	return out
}

// AmountOr returns *p, or def when p is nil.
func AmountOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
