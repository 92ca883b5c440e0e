package catalog

import "context"

// Reader is the read side of the catalog used by the spin selector.
type Reader interface {
	// GetByID returns the product with id, or an error wrapping errors.ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Product, error)

	// ListByCategory returns a category's products in stored order.
	ListByCategory(ctx context.Context, category string) ([]*Product, error)

	// ListCategories returns the spin slots ordered by slot position.
	ListCategories(ctx context.Context) ([]Category, error)
}

// Writer replaces the catalog contents in one step.
type Writer interface {
	ReplaceAll(ctx context.Context, products []*Product, categories []Category) error
}

// Store is a readable and writable catalog.
type Store interface {
	Reader
	Writer
}
