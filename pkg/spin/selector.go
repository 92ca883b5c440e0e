// Package spin picks one product per category from the catalog, keeping
// locked slots and drawing the rest by popularity.
package spin

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
)

// Selector runs spins against a read-only catalog. It holds no mutable state
// and is safe for concurrent use.
type Selector struct {
	store   catalog.Reader
	rand    func() float64
	metrics *observability.Metrics
	tracer  *observability.Tracer
	logger  logging.Logger
}

// Option configures a Selector.
type Option func(*Selector)

// WithRand replaces the uniform [0,1) source used for weighted draws.
func WithRand(fn func() float64) Option {
	return func(s *Selector) { s.rand = fn }
}

// WithMetrics records picks and spin latency on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Selector) { s.metrics = m }
}

// WithTracer wraps each spin in a span.
func WithTracer(t *observability.Tracer) Option {
	return func(s *Selector) { s.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Selector) { s.logger = l }
}

// NewSelector creates a Selector reading from store.
func NewSelector(store catalog.Reader, opts ...Option) *Selector {
	s := &Selector{
		store:  store,
		rand:   rand.Float64,
		tracer: observability.NewTracer(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.F("component", "spin"))
	return s
}

// Spin returns one product per category in slot order. A locked category keeps
// its pinned product when the id resolves to a product of that category;
// otherwise the category is drawn with WeightedPick. A lock naming a product
// from a different category is not honored: that slot is sampled as if
// unlocked, so every entry of the result belongs to its slot. Categories
// without candidates are absent from the result. Only store failures are
// returned.
func (s *Selector) Spin(ctx context.Context, categories []catalog.Category, locked catalog.LockSet) (catalog.SpinResult, error) {
	start := time.Now()
	ctx, span := s.tracer.StartSpinSpan(ctx, len(categories), len(locked))
	defer span.End()
	h := observability.NewSpanHelper(span)

	result := make(catalog.SpinResult, len(categories))
	for _, cat := range categories {
		p, mode, err := s.pick(ctx, cat.Name, locked)
		if err != nil {
			classified := dserrors.ClassifyError(err, "spin")
			h.SetError(err, string(classified.Code), dserrors.IsRetryable(classified.Code))
			s.metrics.RecordSpin(observability.StatusFailed, time.Since(start).Seconds())
			return nil, err
		}
		if p == nil {
			s.metrics.RecordEmptyPool(cat.Name)
			s.logger.Debug("Empty candidate pool", logging.F("category", cat.Name))
			continue
		}
		s.metrics.RecordPick(cat.Name, mode)
		result[cat.Name] = p
	}

	h.SetPicked(len(result))
	h.SetSuccess()
	s.metrics.RecordSpin(observability.StatusOK, time.Since(start).Seconds())
	return result, nil
}

func (s *Selector) pick(ctx context.Context, category string, locked catalog.LockSet) (*catalog.Product, string, error) {
	if id, ok := locked[category]; ok {
		p, err := s.store.GetByID(ctx, id)
		switch {
		case err == nil && p.Category == category:
			return p, observability.PickLocked, nil
		case err == nil:
			s.logger.Debug("Lock points at another category, sampling instead",
				logging.F("category", category),
				logging.F("product_id", id),
				logging.F("product_category", p.Category))
		case dserrors.IsNotFound(err):
			s.logger.Debug("Locked product no longer exists, sampling instead",
				logging.F("category", category),
				logging.F("product_id", id))
		default:
			return nil, "", fmt.Errorf("resolving lock %s:%d: %w", category, id, err)
		}
	}

	pool, err := s.store.ListByCategory(ctx, category)
	if err != nil {
		return nil, "", fmt.Errorf("listing %s: %w", category, err)
	}
	return WeightedPick(pool, s.rand()), observability.PickSampled, nil
}

// WeightedPick draws from pool with weight max(count, 1) per product. r must
// be uniform in [0, 1). Candidates are walked in order, subtracting each weight
// from r*total; the first that brings the remainder to zero or below wins. An
// empty pool returns nil.
func WeightedPick(pool []*catalog.Product, r float64) *catalog.Product {
	if len(pool) == 0 {
		return nil
	}

	total := 0
	for _, p := range pool {
		total += weight(p)
	}

	x := r * float64(total)
	for _, p := range pool {
		x -= float64(weight(p))
		if x <= 0 {
			return p
		}
	}
	return pool[0]
}

func weight(p *catalog.Product) int {
	return max(p.Count, 1)
}

// ErrNoCategories is returned by SpinAll when the store has no categories.
var ErrNoCategories = errors.New("no categories configured")

// SpinAll loads the categories from the store and spins them. It returns the
// categories alongside the result so callers can render slots in order.
// Locks behave as in Spin.
func (s *Selector) SpinAll(ctx context.Context, locked catalog.LockSet) ([]catalog.Category, catalog.SpinResult, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil, ErrNoCategories
	}
	result, err := s.Spin(ctx, categories, locked)
	if err != nil {
		return nil, nil, err
	}
	return categories, result, nil
}
