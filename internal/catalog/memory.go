package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/theirongolddev/paysplit/internal/model"
)

// Memory is a Catalog held in process memory. It is safe for concurrent use.
type Memory struct {
	mu         sync.Mutex
	categories []model.Category
	newID      IDGenerator
}

// MemoryOption configures a Memory catalog.
type MemoryOption func(*Memory)

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(gen IDGenerator) MemoryOption {
	return func(m *Memory) { m.newID = gen }
}

// NewMemory returns an empty in-memory catalog.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{newID: NewID}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Catalog = (*Memory)(nil)

func (m *Memory) Categories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Category, len(m.categories))
	for i, c := range m.categories {
		out[i] = c.Clone()
	}
	return out, nil
}

func (m *Memory) Category(_ context.Context, id string) (model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return model.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return m.categories[i].Clone(), nil
}

func (m *Memory) AddCategory(_ context.Context, c model.Category) (model.Category, error) {
	if err := Validate(c); err != nil {
		return model.Category{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := Find(m.categories, c.Name); ok {
		return model.Category{}, fmt.Errorf("category %q: %w", c.Name, ErrDuplicateName)
	}

	c = c.Clone()
	if c.ID == "" {
		c.ID = m.newID()
	}
	for i := range c.Subcategories {
		if c.Subcategories[i].ID == "" {
			c.Subcategories[i].ID = m.newID()
		}
		c.Subcategories[i].CategoryID = c.ID
	}
	SyncAmount(&c)
	m.categories = append(m.categories, c)
	return c.Clone(), nil
}

func (m *Memory) DeleteCategoryAt(_ context.Context, position int) (model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if position < 0 || position >= len(m.categories) {
		return model.Category{}, fmt.Errorf("position %d of %d: %w", position, len(m.categories), ErrInvalidPosition)
	}
	return m.removeAt(position), nil
}

func (m *Memory) DeleteCategory(_ context.Context, id string) (model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(id)
	if i < 0 {
		return model.Category{}, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return m.removeAt(i), nil
}

func (m *Memory) UpdateCategory(_ context.Context, c model.Category) error {
	if err := Validate(model.Category{Name: c.Name, Type: c.Type, Amount: c.Amount}); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(c.ID)
	if i < 0 {
		return fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	for j, other := range m.categories {
		if j != i && SameName(other.Name, c.Name) {
			return fmt.Errorf("category %q: %w", c.Name, ErrDuplicateName)
		}
	}

	cur := &m.categories[i]
	next := c.Clone()
	cur.Name = next.Name
	cur.Type = next.Type
	cur.Priority = next.Priority
	cur.Amount = next.Amount
	cur.DueDate = next.DueDate
	cur.Selected = next.Selected
	SyncAmount(cur)
	return nil
}

func (m *Memory) AddSubcategory(_ context.Context, categoryID string, s model.Subcategory) (model.Subcategory, error) {
	if err := ValidateSubcategory(s); err != nil {
		return model.Subcategory{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(categoryID)
	if i < 0 {
		return model.Subcategory{}, fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	pct := s.AllocationPercentage
	for _, existing := range m.categories[i].Subcategories {
		pct += existing.AllocationPercentage
	}
	if err := ValidatePercentageTotal(m.categories[i].Name, pct); err != nil {
		return model.Subcategory{}, err
	}
	if s.ID == "" {
		s.ID = m.newID()
	}
	s.CategoryID = categoryID
	if s.Amount != nil {
		s.Amount = model.Float(*s.Amount)
	}
	m.categories[i].Subcategories = append(m.categories[i].Subcategories, s)
	SyncAmount(&m.categories[i])
	return s, nil
}

func (m *Memory) RemoveSubcategory(_ context.Context, id string) (model.Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.categories {
		subs := m.categories[i].Subcategories
		for j, s := range subs {
			if s.ID == id {
				m.categories[i].Subcategories = append(subs[:j:j], subs[j+1:]...)
				SyncAmount(&m.categories[i])
				return s, nil
			}
		}
	}
	return model.Subcategory{}, fmt.Errorf("subcategory %s: %w", id, ErrNotFound)
}

func (m *Memory) UpdateAmount(_ context.Context, id string, amount *float64) error {
	if amount != nil && *amount < 0 {
		return fmt.Errorf("amount %.2f: must not be negative", *amount)
	}
	var v *float64
	if amount != nil {
		v = model.Float(*amount)
	}
	return m.apply(id,
		func(c *model.Category) error {
			if DerivesAmount(c.Type) {
				return fmt.Errorf("category %q: %w", c.Name, ErrDerivedAmount)
			}
			c.Amount = v
			return nil
		},
		func(s *model.Subcategory) { s.Amount = v },
	)
}

func (m *Memory) UpdateDueDate(_ context.Context, categoryID string, due *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.index(categoryID)
	if i < 0 {
		return fmt.Errorf("category %s: %w", categoryID, ErrNotFound)
	}
	if due == nil {
		m.categories[i].DueDate = nil
		return nil
	}
	d := *due
	m.categories[i].DueDate = &d
	return nil
}

func (m *Memory) SetSelected(_ context.Context, id string, selected bool) error {
	return m.apply(id,
		func(c *model.Category) error {
			c.Selected = selected
			return nil
		},
		func(s *model.Subcategory) { s.Selected = selected },
	)
}

// apply runs onCat or onSub against whichever entity id names. A changed
// subcategory has its amount written back to the parent.
func (m *Memory) apply(id string, onCat func(*model.Category) error, onSub func(*model.Subcategory)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.categories {
		c := &m.categories[i]
		if c.ID == id {
			return onCat(c)
		}
		for j := range c.Subcategories {
			if c.Subcategories[j].ID == id {
				onSub(&c.Subcategories[j])
				SyncAmount(c)
				return nil
			}
		}
	}
	return fmt.Errorf("item %s: %w", id, ErrNotFound)
}

func (m *Memory) index(id string) int {
	for i, c := range m.categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (m *Memory) removeAt(i int) model.Category {
	c := m.categories[i]
	m.categories = append(m.categories[:i:i], m.categories[i+1:]...)
	return c
}
