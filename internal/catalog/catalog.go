// Package catalog defines the category store contract used by the planner
// and provides an in-memory implementation, seed data and TOML import/export.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theirongolddev/paysplit/internal/model"
)

var (
	// ErrNotFound is returned when no category or subcategory has the ID.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPosition is returned by DeleteCategoryAt for an out-of-range index.
	ErrInvalidPosition = errors.New("invalid position")
	// ErrDuplicateName is returned when a category name is already taken.
	ErrDuplicateName = errors.New("duplicate category name")
	// ErrDerivedAmount is returned when setting a need or want category's
	// amount directly. Set its subcategories instead.
	ErrDerivedAmount = errors.New("amount is the sum of its selected subcategories")
)

// Catalog stores categories and their subcategories keyed by ID. Writes are
// last-write-wins. IDs passed to UpdateAmount and SetSelected may name either
// a category or a subcategory.
type Catalog interface {
	Categories(ctx context.Context) ([]model.Category, error)
	Category(ctx context.Context, id string) (model.Category, error)

	AddCategory(ctx context.Context, c model.Category) (model.Category, error)
	// DeleteCategoryAt removes the category at a zero-based list position.
	DeleteCategoryAt(ctx context.Context, position int) (model.Category, error)
	DeleteCategory(ctx context.Context, id string) (model.Category, error)
	// UpdateCategory replaces the category's own fields. Subcategories are
	// managed with AddSubcategory and RemoveSubcategory.
	UpdateCategory(ctx context.Context, c model.Category) error

	AddSubcategory(ctx context.Context, categoryID string, s model.Subcategory) (model.Subcategory, error)
	RemoveSubcategory(ctx context.Context, id string) (model.Subcategory, error)

	UpdateAmount(ctx context.Context, id string, amount *float64) error
	UpdateDueDate(ctx context.Context, categoryID string, due *time.Time) error
	SetSelected(ctx context.Context, id string, selected bool) error
}

// IDGenerator produces unique entity IDs.
type IDGenerator func() string

// NewID returns a random UUID string.
func NewID() string { return uuid.NewString() }

// Validate checks the fields every catalog implementation requires.
func Validate(c model.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("category name is required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("category %q: invalid type %q", c.Name, c.Type)
	}
	if c.Amount != nil && *c.Amount < 0 {
		return fmt.Errorf("category %q: amount must not be negative", c.Name)
	}
	var pct float64
	for _, s := range c.Subcategories {
		if err := ValidateSubcategory(s); err != nil {
			return fmt.Errorf("category %q: %w", c.Name, err)
		}
		pct += s.AllocationPercentage
	}
	return ValidatePercentageTotal(c.Name, pct)
}

// ValidatePercentageTotal rejects subcategory shares of one category that add
// up to more than 100, allowing for float rounding.
func ValidatePercentageTotal(category string, total float64) error {
	if total > 100.0001 {
		return fmt.Errorf("category %q: subcategory percentages sum to %.1f", category, total)
	}
	return nil
}

// DerivesAmount reports whether categories of type t store the sum of their
// selected subcategory amounts rather than an amount of their own.
func DerivesAmount(t model.CategoryType) bool {
	return t == model.Need || t == model.Want
}

// SyncAmount writes the sum of c's selected subcategory amounts back to
// c.Amount when c's type derives its amount. Amount stays nil while no
// selected subcategory has one.
func SyncAmount(c *model.Category) {
	if !DerivesAmount(c.Type) {
		return
	}
	c.Amount = nil
	for _, s := range c.SelectedSubcategories() {
		if s.Amount == nil {
			continue
		}
		c.Amount = model.Float(model.AmountOr(c.Amount, 0) + *s.Amount)
	}
}

// ValidateSubcategory checks a subcategory's fields.
func ValidateSubcategory(s model.Subcategory) error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("subcategory name is required")
	}
	if s.AllocationPercentage < 0 || s.AllocationPercentage > 100 {
		return fmt.Errorf("subcategory %q: allocation percentage %.1f out of range", s.Name, s.AllocationPercentage)
	}
	if s.Amount != nil && *s.Amount < 0 {
		return fmt.Errorf("subcategory %q: amount must not be negative", s.Name)
	}
	return nil
}

// SameName compares category names the way the catalog does.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Find returns the category with the given name.
func Find(categories []model.Category, name string) (model.Category, bool) {
	for _, c := range categories {
		if SameName(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

// Resolve finds a category by ID, then by name.
func Resolve(categories []model.Category, ref string) (model.Category, error) {
	for _, c := range categories {
		if c.ID == ref {
			return c, nil
		}
	}
	if c, ok := Find(categories, ref); ok {
		return c, nil
	}
	return model.Category{}, fmt.Errorf("category %q: %w", ref, ErrNotFound)
}

// ResolveItem finds a category or subcategory by ID, by category name, or by
// "Category/Subcategory" path.
func ResolveItem(categories []model.Category, ref string) (model.Item, error) {
	if it, ok := model.FindItem(categories, ref); ok {
		return it, nil
	}
	if cat, sub, ok := strings.Cut(ref, "/"); ok {
		c, err := Resolve(categories, cat)
		if err != nil {
			return nil, err
		}
		for _, s := range c.Subcategories {
			if SameName(s.Name, sub) {
				return s, nil
			}
		}
		return nil, fmt.Errorf("subcategory %q: %w", ref, ErrNotFound)
	}
	c, err := Resolve(categories, ref)
	if err != nil {
		return nil, err
	}
	return c, nil
}
