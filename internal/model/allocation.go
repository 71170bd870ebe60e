package model

// Allocations maps a category or subcategory ID to an amount.
type Allocations map[string]float64

// Clone returns an independent copy.
func (a Allocations) Clone() Allocations {
	out := make(Allocations, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Total sums the entries for the given categories only. Subcategory entries
// are components of their parent's entry and are not counted again.
func (a Allocations) Total(categories []Category) float64 {
	var sum float64
	for _, c := range categories {
		sum += a[c.ID]
	}
	return sum
}

// Equal reports whether both maps hold the same keys with values within tol.
func (a Allocations) Equal(b Allocations, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		w, ok := b[k]
		if !ok {
			return false
		}
		d := v - w
		if d < -tol || d > tol {
			return false
		}
	}
	return true
}
