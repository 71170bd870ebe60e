package model

import "fmt"

// Item is either a Category or a Subcategory. Presentation code and the
// catalog use it where an identifier may refer to either level.
type Item interface {
	ItemID() string
	// ItemAmount returns the stored amount and whether one is set.
	ItemAmount() (float64, bool)
	Description() string

	isItem()
}

// ItemID implements Item.
func (c Category) ItemID() string { return c.ID }

// ItemAmount implements Item.
func (c Category) ItemAmount() (float64, bool) {
	if c.Amount == nil {
		return 0, false
	}
	return *c.Amount, true
}

// Description implements Item.
func (c Category) Description() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Type)
}

func (Category) isItem() {}

// ItemID implements Item.
func (s Subcategory) ItemID() string { return s.ID }

// ItemAmount implements Item.
func (s Subcategory) ItemAmount() (float64, bool) {
	if s.Amount == nil {
		return 0, false
	}
	return *s.Amount, true
}

// Description implements Item.
func (s Subcategory) Description() string {
	return s.Name
}

func (Subcategory) isItem() {}

// FindItem resolves id against the categories and their subcategories.
func FindItem(categories []Category, id string) (Item, bool) {
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
		if s, ok := c.Subcategory(id); ok {
			return s, true
		}
	}
	return nil, false
}
