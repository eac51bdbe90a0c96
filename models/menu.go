package models

const DefaultCategory = "Main Course"

var MenuCategories = []string{"Appetizers", "Main Course", "Sri Lankan Specials", "Desserts", "Beverages"}

func IsMenuCategory(c string) bool {
	for _, known := range MenuCategories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryRank orders categories for display; unknown ones sort last.
func CategoryRank(c string) int {
	for i, known := range MenuCategories {
		if c == known {
			return i
		}
	}
	return len(MenuCategories)
}

type MenuItem struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
	Price       float64 `json:"price" yaml:"price"`
	Image       string  `json:"image" yaml:"image"`
	Category    string  `json:"category" yaml:"category"`
	Available   bool    `json:"available" yaml:"available"`
}

func (m MenuItem) RecordID() string { return m.ID }
