package server

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
)

const (
	keyCategories      = "categories"
	keyCategoryPrefix  = "category:"
	keyProductPrefix   = "product:"
	defaultCleanupTick = 10 * time.Minute
)

// CachedReader serves category lists, category pools and product lookups
// from memory for ttl. Errors are never cached. Flush drops everything, which
// the server does when a new catalog is imported.
type CachedReader struct {
	next  catalog.Reader
	cache *cache.Cache
}

// NewCachedReader wraps next with a cache of the given ttl.
func NewCachedReader(next catalog.Reader, ttl time.Duration) *CachedReader {
	return &CachedReader{
		next:  next,
		cache: cache.New(ttl, defaultCleanupTick),
	}
}

// GetByID implements catalog.Reader.
func (c *CachedReader) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	key := keyProductPrefix + strconv.FormatInt(id, 10)
	if x, found := c.cache.Get(key); found {
		return x.(*catalog.Product), nil
	}
	p, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, p, cache.DefaultExpiration)
	return p, nil
}

// ListByCategory implements catalog.Reader.
func (c *CachedReader) ListByCategory(ctx context.Context, category string) ([]*catalog.Product, error) {
	key := keyCategoryPrefix + category
	if x, found := c.cache.Get(key); found {
		return x.([]*catalog.Product), nil
	}
	pool, err := c.next.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, pool, cache.DefaultExpiration)
	return pool, nil
}

// ListCategories implements catalog.Reader.
func (c *CachedReader) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	if x, found := c.cache.Get(keyCategories); found {
		return x.([]catalog.Category), nil
	}
	categories, err := c.next.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(keyCategories, categories, cache.DefaultExpiration)
	return categories, nil
}

// Flush empties the cache.
func (c *CachedReader) Flush() {
	c.cache.Flush()
}

// Len returns the number of cached entries, including expired ones not yet
// cleaned up.
func (c *CachedReader) Len() int {
	return c.cache.ItemCount()
}
