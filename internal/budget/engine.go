package budget

import (
	"time"

	"github.com/theirongolddev/paysplit/internal/model"
)

// Snapshot is a copy of the engine's inputs and derived maps at one point.
type Snapshot struct {
	Paycheck      float64           `json:"paycheck"`
	Cadence       Cadence           `json:"cadence"`
	MonthlyIncome float64           `json:"monthly_income"`
	Allocations   model.Allocations `json:"allocations"`
	Recommended   model.Allocations `json:"recommended"`
	Perfect       model.Allocations `json:"perfect"`
}

// Engine computes the three allocation maps for one paycheck and cadence.
//
// An Engine is not safe for concurrent use. The maps are rebuilt from scratch
// on every compute call and are never merged with earlier results.
type Engine struct {
	paycheck float64
	cadence  Cadence
	now      func() time.Time

	allocations model.Allocations
	recommended model.Allocations
	perfect     model.Allocations

	listeners []Listener
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides time.Now for debt amortization.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithListener registers l before the first compute.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// New returns an engine for the given paycheck and cadence. Negative
// paychecks are treated as zero.
func New(paycheck float64, cadence Cadence, opts ...Option) *Engine {
	e := &Engine{
		paycheck:    max(0, paycheck),
		cadence:     cadence,
		now:         time.Now,
		allocations: make(model.Allocations),
		recommended: make(model.Allocations),
		perfect:     make(model.Allocations),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Paycheck returns the per-paycheck income.
func (e *Engine) Paycheck() float64 { return e.paycheck }

// SetPaycheck changes the income used by the next compute.
func (e *Engine) SetPaycheck(amount float64) { e.paycheck = max(0, amount) }

// Cadence returns the pay cadence.
func (e *Engine) Cadence() Cadence { return e.cadence }

// SetCadence changes the cadence used by the next compute.
func (e *Engine) SetCadence(c Cadence) { e.cadence = c }

// MonthlyIncome is the paycheck converted to its monthly equivalent.
func (e *Engine) MonthlyIncome() float64 {
	return ToMonthly(e.paycheck, e.cadence)
}

// Subscribe registers a listener for compute and removal events.
func (e *Engine) Subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Compute runs the entered, recommended and perfect passes over categories
// and notifies listeners once all three maps are rebuilt. Unselected
// categories and subcategories are ignored.
func (e *Engine) Compute(categories []model.Category) {
	e.ComputeAllocations(categories)
	e.ComputeRecommended(categories)
	e.ComputePerfect(categories)
	e.emit(Event{Type: EventRecomputed, Snapshot: e.Snapshot()})
}

// Allocations returns a copy of the entered budget.
func (e *Engine) Allocations() model.Allocations { return e.allocations.Clone() }

// Recommended returns a copy of the recommended budget.
func (e *Engine) Recommended() model.Allocations { return e.recommended.Clone() }

// Perfect returns a copy of the perfect budget.
func (e *Engine) Perfect() model.Allocations { return e.perfect.Clone() }

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Paycheck:      e.paycheck,
		Cadence:       e.cadence,
		MonthlyIncome: e.MonthlyIncome(),
		Allocations:   e.allocations.Clone(),
		Recommended:   e.recommended.Clone(),
		Perfect:       e.perfect.Clone(),
	}
}

// Remove drops every entry for c and its subcategories from all three maps.
func (e *Engine) Remove(c model.Category) {
	ids := c.EntityIDs()
	for _, id := range ids {
		delete(e.allocations, id)
		delete(e.recommended, id)
		delete(e.perfect, id)
	}
	e.emit(Event{Type: EventRemoved, Snapshot: e.Snapshot(), Removed: ids})
}

// RemoveSubcategory drops a single subcategory's entries.
func (e *Engine) RemoveSubcategory(s model.Subcategory) {
	// The parent's entered total is the sum of its subcategories.
	if amount, ok := e.allocations[s.ID]; ok {
		if total, ok := e.allocations[s.CategoryID]; ok {
			e.allocations[s.CategoryID] = max(0, total-amount)
		}
	}
	delete(e.allocations, s.ID)
	delete(e.recommended, s.ID)
	delete(e.perfect, s.ID)
	e.emit(Event{Type: EventRemoved, Snapshot: e.Snapshot(), Removed: []string{s.ID}})
}

func (e *Engine) emit(ev Event) {
	for _, l := range e.listeners {
		l(ev)
	}
}
