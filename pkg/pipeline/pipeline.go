// Package pipeline runs the offline catalog build: canonicalize and merge
// mentions, classify the merged products, optionally rebuild co-occurrence
// from workspace membership, and select the import subset.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/deskspin/pkg/canonical"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/classify"
	"github.com/otherjamesbrown/deskspin/pkg/cooccur"
	"github.com/otherjamesbrown/deskspin/pkg/dedupe"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
)

// Stage names, used for spans, metrics and item errors.
const (
	StageDedupe   = "dedupe"
	StageClassify = "classify"
	StageCooccur  = "cooccur"
	StageSelect   = "select"
)

// DefaultTopN is the summary length when Config.TopN is unset.
const DefaultTopN = 20

// Config controls a pipeline run.
type Config struct {
	// RebuildCooccurrence recomputes OftenWith from the merged workspace sets
	// instead of keeping the merged upstream partner lists.
	RebuildCooccurrence bool

	// KeepUpstreamCategory only classifies products that arrive without a
	// category. By default every merged product is reclassified.
	KeepUpstreamCategory bool

	// Categories are the spin slots the import subset is filtered to.
	// Defaults to catalog.DefaultCategories().
	Categories []catalog.Category

	// TopN bounds the summary lists.
	TopN int
}

// Result is the output of one run.
type Result struct {
	RunID string

	// Catalog is every merged product, sorted by count descending.
	Catalog []*catalog.Product

	// Import is the subset of Catalog in the spin categories, same order.
	Import []*catalog.Product

	Stats       dedupe.Stats
	Summary     Summary
	StartedAt   time.Time
	CompletedAt time.Time
}

// Pipeline runs the catalog build.
type Pipeline struct {
	cfg        Config
	canon      *canonical.Canonicalizer
	classifier *classify.Classifier
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     logging.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCanonicalizer replaces the default canonicalizer.
func WithCanonicalizer(c *canonical.Canonicalizer) Option {
	return func(p *Pipeline) { p.canon = c }
}

// WithClassifier replaces the default classifier.
func WithClassifier(c *classify.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithMetrics records stage metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(p *Pipeline) { p.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New creates a Pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	if len(cfg.Categories) == 0 {
		cfg.Categories = catalog.DefaultCategories()
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}

	p := &Pipeline{
		cfg:    cfg,
		tracer: observability.NewTracer(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.canon == nil {
		p.canon = canonical.New()
	}
	if p.classifier == nil {
		p.classifier = classify.New(nil)
	}
	p.logger = p.logger.With(logging.F("component", "pipeline"))
	return p
}

// Run builds the catalog from mentions. It fails only when ctx is done;
// unusable mentions are dropped and counted.
func (p *Pipeline) Run(ctx context.Context, mentions []catalog.Mention) (*Result, error) {
	res := &Result{RunID: uuid.New().String(), StartedAt: time.Now()}
	ctx = context.WithValue(ctx, logging.RunIDKey, res.RunID)
	log := p.logger.WithContext(ctx)

	ctx, span := p.tracer.StartRunSpan(ctx, res.RunID, len(mentions))
	defer span.End()
	h := observability.NewSpanHelper(span)

	log.Info("Pipeline run started", logging.F("mentions", len(mentions)))

	var merged *dedupe.Result
	if err := p.stage(ctx, StageDedupe, func() (int, int) {
		merged = dedupe.Merge(mentions, p.canon)
		return len(mentions), len(merged.Products)
	}); err != nil {
		return nil, p.fail(h, err)
	}
	res.Stats = merged.Stats
	res.Catalog = merged.Products
	p.metrics.RecordMentions(merged.Stats.Input-merged.Stats.Skipped, merged.Stats.Skipped)
	p.metrics.RecordSkips("skip_brand", merged.Stats.Skipped)

	if err := p.stage(ctx, StageClassify, func() (int, int) {
		return len(res.Catalog), p.classifyAll(res.Catalog)
	}); err != nil {
		return nil, p.fail(h, err)
	}

	if p.cfg.RebuildCooccurrence {
		if err := p.stage(ctx, StageCooccur, func() (int, int) {
			return len(res.Catalog), rebuildCooccurrence(res.Catalog, merged.Keys)
		}); err != nil {
			return nil, p.fail(h, err)
		}
	}

	if err := p.stage(ctx, StageSelect, func() (int, int) {
		res.Import = catalog.FilterToCategories(res.Catalog, p.cfg.Categories)
		return len(res.Catalog), len(res.Import)
	}); err != nil {
		return nil, p.fail(h, err)
	}

	res.Summary = Summarize(res.Catalog, res.Import, p.cfg.TopN)
	res.CompletedAt = time.Now()
	p.metrics.SetUniqueProducts(len(res.Catalog))

	h.SetCounts(len(mentions), len(res.Catalog))
	h.SetSuccess()
	log.Info("Pipeline run completed",
		logging.F("input", res.Stats.Input),
		logging.F("skipped", res.Stats.Skipped),
		logging.F("merged", res.Stats.Merged),
		logging.F("unique", res.Stats.Unique),
		logging.F("imported", len(res.Import)),
		logging.F("duration", res.CompletedAt.Sub(res.StartedAt)))

	return res, nil
}

func (p *Pipeline) fail(h *observability.SpanHelper, err error) error {
	ie := dserrors.ClassifyError(err, "pipeline")
	h.SetError(err, string(ie.Code), dserrors.IsRetryable(ie.Code))
	p.logger.Warn("Pipeline run stopped", logging.Err(err))
	return err
}

// stage runs fn inside a span and records its latency. fn returns its input
// and output sizes.
func (p *Pipeline) stage(ctx context.Context, name string, fn func() (in, out int)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline stopped before %s: %w", name, err)
	}

	_, span := p.tracer.StartStageSpan(ctx, name)
	defer span.End()

	start := time.Now()
	in, out := fn()
	p.metrics.RecordStage(name, time.Since(start).Seconds())

	h := observability.NewSpanHelper(span)
	h.SetCounts(in, out)
	h.SetSuccess()

	p.logger.Debug("Stage completed",
		logging.F("stage", name),
		logging.F("input", in),
		logging.F("output", out),
		logging.F("duration", time.Since(start)))
	return nil
}

// classifyAll assigns categories and returns how many products changed.
func (p *Pipeline) classifyAll(products []*catalog.Product) int {
	changed := 0
	for _, prod := range products {
		if p.cfg.KeepUpstreamCategory && prod.Category != "" {
			continue
		}
		category := p.classifier.Classify(prod.Name, prod.Description)
		if category != prod.Category {
			changed++
			prod.Category = category
		}
	}
	return changed
}

// rebuildCooccurrence replaces every OftenWith with counts derived from the
// products' workspace sets. keys is index-aligned with products. It returns
// the number of workspaces observed.
func rebuildCooccurrence(products []*catalog.Product, keys []string) int {
	agg := cooccur.New()
	defer agg.Reset()

	var order []string
	members := make(map[string][]string)
	byProduct := make(map[*catalog.Product]string, len(products))

	for i, prod := range products {
		key := keys[i]
		byProduct[prod] = key
		agg.Label(key, prod.Name)
		for _, ws := range prod.Workspaces {
			if _, ok := members[ws]; !ok {
				order = append(order, ws)
			}
			members[ws] = append(members[ws], key)
		}
	}

	for _, ws := range order {
		agg.Observe(members[ws])
	}
	agg.Apply(products, func(prod *catalog.Product) string { return byProduct[prod] })
	return len(order)
}
