package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/theirongolddev/paysplit/internal/model"
)

const dateLayout = "2006-01-02"

// File is the TOML document written by Export and read by Import.
type File struct {
	Categories []CategoryRecord `toml:"category"`
}

// CategoryRecord is one [[category]] table.
type CategoryRecord struct {
	ID            string              `toml:"id,omitempty"`
	Name          string              `toml:"name"`
	Type          string              `toml:"type"`
	Priority      int                 `toml:"priority"`
	Amount        *float64            `toml:"amount,omitempty"`
	DueDate       string              `toml:"due_date,omitempty"`
	Selected      bool                `toml:"selected"`
	Subcategories []SubcategoryRecord `toml:"subcategory,omitempty"`
}

// SubcategoryRecord is one [[category.subcategory]] table.
type SubcategoryRecord struct {
	ID         string   `toml:"id,omitempty"`
	Name       string   `toml:"name"`
	Priority   int      `toml:"priority"`
	Amount     *float64 `toml:"amount,omitempty"`
	Percentage float64  `toml:"percentage"`
	Selected   bool     `toml:"selected"`
}

func recordOf(c model.Category) CategoryRecord {
	r := CategoryRecord{
		ID:       c.ID,
		Name:     c.Name,
		Type:     string(c.Type),
		Priority: c.Priority,
		Amount:   c.Amount,
		Selected: c.Selected,
	}
	if c.DueDate != nil {
		r.DueDate = c.DueDate.Format(dateLayout)
	}
	for _, s := range c.Subcategories {
		r.Subcategories = append(r.Subcategories, SubcategoryRecord{
			ID:         s.ID,
			Name:       s.Name,
			Priority:   s.Priority,
			Amount:     s.Amount,
			Percentage: s.AllocationPercentage,
			Selected:   s.Selected,
		})
	}
	return r
}

// Category converts the record back into a model category.
func (r CategoryRecord) Category() (model.Category, error) {
	t, err := model.ParseCategoryType(r.Type)
	if err != nil {
		return model.Category{}, fmt.Errorf("category %q: %w", r.Name, err)
	}
	c := model.Category{
		ID:       r.ID,
		Name:     r.Name,
		Type:     t,
		Priority: r.Priority,
		Amount:   r.Amount,
		Selected: r.Selected,
	}
	if r.DueDate != "" {
		due, err := time.ParseInLocation(dateLayout, r.DueDate, time.Local)
		if err != nil {
			return model.Category{}, fmt.Errorf("category %q: due date: %w", r.Name, err)
		}
		c.DueDate = &due
	}
	for _, s := range r.Subcategories {
		c.Subcategories = append(c.Subcategories, model.Subcategory{
			ID:                   s.ID,
			CategoryID:           r.ID,
			Name:                 s.Name,
			Priority:             s.Priority,
			Amount:               s.Amount,
			AllocationPercentage: s.Percentage,
			Selected:             s.Selected,
		})
	}
	return c, nil
}

// Export writes every category in cat to w as TOML.
func Export(ctx context.Context, cat Catalog, w io.Writer) error {
	categories, err := cat.Categories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}
	var f File
	for _, c := range categories {
		f.Categories = append(f.Categories, recordOf(c))
	}
	if err := toml.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	return nil
}

// ImportResult counts what Import did.
type ImportResult struct {
	Added    int
	Replaced int
	Skipped  int
}

// Import reads a TOML catalog from r. Categories whose name already exists
// are skipped, or deleted and re-added when replace is set.
func Import(ctx context.Context, cat Catalog, r io.Reader, replace bool) (ImportResult, error) {
	var res ImportResult

	var f File
	if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
		return res, fmt.Errorf("decoding catalog: %w", err)
	}

	existing, err := cat.Categories(ctx)
	if err != nil {
		return res, fmt.Errorf("listing categories: %w", err)
	}

	for _, rec := range f.Categories {
		c, err := rec.Category()
		if err != nil {
			return res, err
		}
		if old, ok := Find(existing, c.Name); ok {
			if !replace {
				res.Skipped++
				continue
			}
			if _, err := cat.DeleteCategory(ctx, old.ID); err != nil && !errors.Is(err, ErrNotFound) {
				return res, fmt.Errorf("replacing %s: %w", c.Name, err)
			}
			res.Replaced++
		} else {
			res.Added++
		}
		// Keep IDs only when they cannot clash with something already stored.
		if c.ID != "" {
			if _, err := cat.Category(ctx, c.ID); err == nil {
				c.ID = ""
				for i := range c.Subcategories {
					c.Subcategories[i].ID = ""
				}
			}
		}
		if _, err := cat.AddCategory(ctx, c); err != nil {
			return res, fmt.Errorf("importing %s: %w", c.Name, err)
		}
	}
	return res, nil
}
