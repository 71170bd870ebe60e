// Package pipeline loads the category catalog, runs the allocation engine
// over it and shapes the results for the CLI, dashboard and daemon.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/theirongolddev/paysplit/internal/budget"
	"github.com/theirongolddev/paysplit/internal/catalog"
	"github.com/theirongolddev/paysplit/internal/model"
)

// Result is one full computation over the catalog.
type Result struct {
	Categories []model.Category
	Snapshot   budget.Snapshot
	Plan       budget.Plan
	Summary    budget.Summary
	ComputedAt time.Time
}

// Selected returns the selected categories from the result.
func (r *Result) Selected() []model.Category {
	return model.Selected(r.Categories)
}

// Planner ties a catalog to an engine. It is safe for concurrent use; the
// engine is only touched while holding the planner's lock.
type Planner struct {
	mu     sync.Mutex
	cat    catalog.Catalog
	engine *budget.Engine
	last   *Result
}

// NewPlanner returns a planner over cat.
func NewPlanner(cat catalog.Catalog, engine *budget.Engine) *Planner {
	return &Planner{cat: cat, engine: engine}
}

// Catalog returns the underlying catalog.
func (p *Planner) Catalog() catalog.Catalog { return p.cat }

// Subscribe registers l for engine events. Listeners run with the planner
// locked and must not call back into it.
func (p *Planner) Subscribe(l budget.Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.Subscribe(l)
}

// SetIncome changes the paycheck and cadence for the next refresh.
func (p *Planner) SetIncome(paycheck float64, cadence budget.Cadence) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.engine.SetPaycheck(paycheck)
	p.engine.SetCadence(cadence)
}

// Income returns the current paycheck and cadence.
func (p *Planner) Income() (float64, budget.Cadence) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.engine.Paycheck(), p.engine.Cadence()
}

// Refresh reloads the catalog and recomputes every map and the plan.
func (p *Planner) Refresh(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Loaded under the lock so a concurrent delete cannot slip between the
	// load and the compute.
	cats, err := p.cat.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	p.engine.Compute(cats)
	p.last = p.resultLocked(cats)
	return p.last, nil
}

// resultLocked builds a Result from the engine's current maps.
func (p *Planner) resultLocked(cats []model.Category) *Result {
	return &Result{
		Categories: cats,
		Snapshot:   p.engine.Snapshot(),
		Plan:       p.engine.Prioritize(cats),
		Summary:    p.engine.Summarize(cats),
		ComputedAt: time.Now(),
	}
}

// Last returns the most recent Refresh result, or nil.
func (p *Planner) Last() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// DeleteCategory removes a category from the catalog and drops it and its
// subcategories from every allocation map.
func (p *Planner) DeleteCategory(ctx context.Context, id string) (model.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.cat.DeleteCategory(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	p.removedLocked(c)
	return c, nil
}

// DeleteCategoryAt is DeleteCategory by list position.
func (p *Planner) DeleteCategoryAt(ctx context.Context, position int) (model.Category, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.cat.DeleteCategoryAt(ctx, position)
	if err != nil {
		return model.Category{}, err
	}
	p.removedLocked(c)
	return c, nil
}

// RemoveSubcategory removes a subcategory and its allocation entries.
func (p *Planner) RemoveSubcategory(ctx context.Context, id string) (model.Subcategory, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, err := p.cat.RemoveSubcategory(ctx, id)
	if err != nil {
		return model.Subcategory{}, err
	}
	p.engine.RemoveSubcategory(s)
	if p.last != nil {
		cats := make([]model.Category, 0, len(p.last.Categories))
		for _, c := range p.last.Categories {
			if c.ID == s.CategoryID {
				c = c.Clone()
				c.Subcategories = slices.DeleteFunc(c.Subcategories, func(sub model.Subcategory) bool {
					return sub.ID == s.ID
				})
			}
			cats = append(cats, c)
		}
		p.last = p.resultLocked(cats)
	}
	return s, nil
}

// removedLocked drops c from the engine and from the last result so readers
// of Last never see a deleted category before the next Refresh.
func (p *Planner) removedLocked(c model.Category) {
	p.engine.Remove(c)
	if p.last != nil {
		cats := slices.DeleteFunc(slices.Clone(p.last.Categories), func(x model.Category) bool {
			return x.ID == c.ID
		})
		p.last = p.resultLocked(cats)
	}
}
