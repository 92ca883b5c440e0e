package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
)

// MemoryStore is an in-process Store. Products get sequential ids from 1 in
// the order they were written.
type MemoryStore struct {
	mu         sync.RWMutex
	products   []*Product
	byID       map[int64]*Product
	categories []Category
}

// NewMemoryStore returns an empty store with the default categories.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{byID: make(map[int64]*Product)}
	s.categories = DefaultCategories()
	return s
}

// GetByID implements Reader.
func (s *MemoryStore) GetByID(ctx context.Context, id int64) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("product %d: %w", id, dserrors.ErrNotFound)
	}
	return p.Clone(), nil
}

// ListByCategory implements Reader.
func (s *MemoryStore) ListByCategory(ctx context.Context, category string) ([]*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Product
	for _, p := range s.products {
		if p.Category == category {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

// ListCategories implements Reader.
func (s *MemoryStore) ListCategories(ctx context.Context) ([]Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Category(nil), s.categories...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SlotPosition < out[j].SlotPosition })
	return out, nil
}

// ReplaceAll implements Writer. A nil categories slice keeps the current ones.
func (s *MemoryStore) ReplaceAll(ctx context.Context, products []*Product, categories []Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]*Product, len(products))
	byID := make(map[int64]*Product, len(products))
	for i, p := range products {
		c := p.Clone()
		c.ID = int64(i + 1)
		stored[i] = c
		byID[c.ID] = c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = stored
	s.byID = byID
	if categories != nil {
		s.categories = make([]Category, len(categories))
		for i, c := range categories {
			c.ID = int64(i + 1)
			s.categories[i] = c
		}
	}
	return nil
}

// Len returns the number of stored products.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
