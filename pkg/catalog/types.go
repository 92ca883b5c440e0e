// Package catalog defines the product catalog model and its stores.
package catalog

// MaxOftenWith caps the partner list kept on each product.
const MaxOftenWith = 5

// Partner is a co-occurring product and how many workspaces showed both.
type Partner struct {
	Product string `json:"product"`
	Count   int    `json:"count"`
}

// Mention is one scraped appearance of a product, or an upstream aggregate of
// several appearances when Count and Workspaces are already populated.
type Mention struct {
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model,omitempty"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Count       int       `json:"count,omitempty"`
	Workspaces  []string  `json:"workspaces,omitempty"`
	OftenWith   []Partner `json:"oftenWith,omitempty"`
	Origin      string    `json:"originWorkspace,omitempty"`
}

// EffectiveCount is the popularity this mention contributes. Missing or
// non-positive counts count once.
func (m Mention) EffectiveCount() int {
	if m.Count <= 0 {
		return 1
	}
	return m.Count
}

// WorkspaceIDs returns the workspaces this mention was seen in.
func (m Mention) WorkspaceIDs() []string {
	if len(m.Workspaces) == 0 && m.Origin != "" {
		return []string{m.Origin}
	}
	return m.Workspaces
}

// Product is a canonical catalog entry built by merging mentions.
type Product struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Brand       string    `json:"brand"`
	Model       string    `json:"model"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Category    string    `json:"category"`
	Count       int       `json:"count"`
	Workspaces  []string  `json:"workspaces"`
	OftenWith   []Partner `json:"oftenWith"`
}

// Clone returns a deep copy of p.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Workspaces = append([]string(nil), p.Workspaces...)
	c.OftenWith = append([]Partner(nil), p.OftenWith...)
	return &c
}

// Category is one slot of the spin layout.
type Category struct {
	ID           int64  `json:"id,omitempty" yaml:"-"`
	Name         string `json:"name" yaml:"name"`
	DisplayName  string `json:"display_name" yaml:"display_name"`
	SlotPosition int    `json:"slot_position" yaml:"slot_position"`
}

// DefaultCategories returns the six spin slots in slot order.
func DefaultCategories() []Category {
	return []Category{
		{Name: "monitor", DisplayName: "Monitor", SlotPosition: 1},
		{Name: "keyboard", DisplayName: "Keyboard", SlotPosition: 2},
		{Name: "mouse", DisplayName: "Mouse", SlotPosition: 3},
		{Name: "chair", DisplayName: "Chair", SlotPosition: 4},
		{Name: "desk", DisplayName: "Desk", SlotPosition: 5},
		{Name: "headphones", DisplayName: "Audio", SlotPosition: 6},
	}
}

// LockSet pins a product id per category for one spin request.
type LockSet map[string]int64

// SpinResult holds the pick per category. A category with no candidates has no entry.
type SpinResult map[string]*Product

// FilterToCategories keeps the products whose category is one of categories,
// preserving order.
func FilterToCategories(products []*Product, categories []Category) []*Product {
	allowed := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		allowed[c.Name] = struct{}{}
	}

	out := make([]*Product, 0, len(products))
	for _, p := range products {
		if _, ok := allowed[p.Category]; ok {
			out = append(out, p)
		}
	}
	return out
}

// CountByCategory tallies products per category.
func CountByCategory(products []*Product) map[string]int {
	counts := make(map[string]int)
	for _, p := range products {
		counts[p.Category]++
	}
	return counts
}
