package source

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/otherjamesbrown/deskspin/pkg/canonical"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/classify"
	"github.com/otherjamesbrown/deskspin/pkg/cooccur"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
)

// DefaultDelay is the pause enforced between consecutive fetches.
const DefaultDelay = time.Second

// StageCollect is the stage name used on item errors.
const StageCollect = "collect"

// CollectorConfig configures a Collector.
type CollectorConfig struct {
	// Delay is the minimum time between two fetches.
	Delay time.Duration

	// Limit caps how many references are fetched; zero means all.
	Limit int
}

// Collection is the result of a collection run.
type Collection struct {
	Workspaces []*Workspace
	// Mentions aggregates products across workspaces, sorted by count descending.
	Mentions []catalog.Mention
	// Failures holds one error per reference that could not be fetched.
	Failures []*dserrors.ItemError
	Progress ProgressSnapshot
}

// Collector fetches workspaces strictly one at a time and aggregates their
// products into mentions with co-occurrence partners.
type Collector struct {
	src        Source
	cfg        CollectorConfig
	limiter    *rate.Limiter
	canon      *canonical.Canonicalizer
	classifier *classify.Classifier
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     logging.Logger
	onProgress func(ProgressSnapshot)
}

// CollectorOption configures a Collector.
type CollectorOption func(*Collector)

// WithCanonicalizer sets the canonicalizer used for brand detection.
func WithCanonicalizer(c *canonical.Canonicalizer) CollectorOption {
	return func(col *Collector) { col.canon = c }
}

// WithClassifier sets the classifier used to label fetched products.
func WithClassifier(c *classify.Classifier) CollectorOption {
	return func(col *Collector) { col.classifier = c }
}

// WithMetrics records fetch outcomes on m.
func WithMetrics(m *observability.Metrics) CollectorOption {
	return func(col *Collector) { col.metrics = m }
}

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) CollectorOption {
	return func(col *Collector) { col.tracer = t }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) CollectorOption {
	return func(col *Collector) { col.logger = l }
}

// WithProgress registers a progress callback.
func WithProgress(fn func(ProgressSnapshot)) CollectorOption {
	return func(col *Collector) { col.onProgress = fn }
}

// NewCollector creates a Collector over src.
func NewCollector(src Source, cfg CollectorConfig, opts ...CollectorOption) *Collector {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	c := &Collector{
		src:     src,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(cfg.Delay), 1),
		tracer:  observability.NewTracer(),
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.canon == nil {
		c.canon = canonical.New()
	}
	if c.classifier == nil {
		c.classifier = classify.New(nil)
	}
	c.logger = c.logger.With(logging.F("component", "collector"))
	return c
}

// Collect fetches refs in order. A failed fetch is logged and recorded in
// Collection.Failures without stopping the run. Collect returns an error when
// ctx is cancelled (with what was collected so far), when the source reports
// itself unavailable, or when every fetch failed.
func (c *Collector) Collect(ctx context.Context, refs []string) (*Collection, error) {
	refs = cleanRefs(refs)
	if c.cfg.Limit > 0 && len(refs) > c.cfg.Limit {
		refs = refs[:c.cfg.Limit]
	}

	ctx, span := c.tracer.StartCollectSpan(ctx, len(refs))
	defer span.End()
	h := observability.NewSpanHelper(span)

	progress := NewProgress(len(refs))
	if c.onProgress != nil {
		progress.SetOnUpdate(c.onProgress)
	}
	progress.Start()

	col := &Collection{}
	finish := func(err error) (*Collection, error) {
		col.Mentions = c.aggregate(col.Workspaces)
		col.Progress = progress.Snapshot()
		h.SetCounts(len(refs), len(col.Workspaces))
		if err != nil {
			ie := dserrors.ClassifyError(err, StageCollect)
			h.SetError(err, string(ie.Code), dserrors.IsRetryable(ie.Code))
		} else {
			h.SetSuccess()
		}
		return col, err
	}

	for _, ref := range refs {
		if err := c.limiter.Wait(ctx); err != nil {
			progress.Cancel()
			return finish(fmt.Errorf("collection stopped: %w", ctxErr(ctx, err)))
		}

		progress.SetCurrent(ref)
		ws, err := c.fetch(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				progress.Cancel()
				return finish(fmt.Errorf("collection stopped: %w", ctx.Err()))
			}
			progress.RecordFailed()
			col.Failures = append(col.Failures, dserrors.NewItemError(dserrors.ErrFetchFailure, StageCollect, ref, err))
			if dserrors.IsUnavailable(err) {
				progress.Complete(false)
				return finish(fmt.Errorf("source unavailable: %w", err))
			}
			continue
		}

		progress.RecordFetched()
		col.Workspaces = append(col.Workspaces, ws)
		snap := progress.Snapshot()
		c.logger.Info("Fetched workspace",
			logging.F("progress", fmt.Sprintf("%d/%d", snap.Processed, snap.Total)),
			logging.F("workspace", ws.ID),
			logging.F("products", len(ws.Products)))
	}

	if len(refs) > 0 && len(col.Workspaces) == 0 {
		progress.Complete(false)
		return finish(fmt.Errorf("all %d fetches failed: %w", len(refs), dserrors.ErrUnavailable))
	}

	progress.Complete(true)
	return finish(nil)
}

func (c *Collector) fetch(ctx context.Context, ref string) (*Workspace, error) {
	ctx, span := c.tracer.StartFetchSpan(ctx, ref)
	defer span.End()

	start := time.Now()
	ws, err := c.src.Fetch(ctx, ref)
	if err != nil {
		c.metrics.RecordFetch(observability.StatusFailed, time.Since(start).Seconds())
		ie := dserrors.ClassifyError(err, StageCollect)
		observability.NewSpanHelper(span).SetError(err, string(ie.Code), dserrors.IsRetryable(ie.Code))
		c.logger.Warn("Fetch failed, skipping",
			logging.F("ref", ref),
			logging.F("code", string(ie.Code)),
			logging.Err(err))
		return nil, err
	}
	c.metrics.RecordFetch(observability.StatusOK, time.Since(start).Seconds())
	return ws, nil
}

type aggregate struct {
	mention    catalog.Mention
	workspaces map[string]struct{}
}

// aggregate folds workspace products into mentions keyed by lowercased name.
// Every appearance adds one to the count. Co-occurrence partners are the top
// catalog.MaxOftenWith names seen in the same workspaces.
func (c *Collector) aggregate(workspaces []*Workspace) []catalog.Mention {
	agg := cooccur.New()
	defer agg.Reset()

	byKey := make(map[string]*aggregate)
	var order []*aggregate
	var keys []string

	for _, ws := range workspaces {
		wsKeys := make([]string, 0, len(ws.Products))
		for _, item := range ws.Products {
			name := strings.TrimSpace(item.Name)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			wsKeys = append(wsKeys, key)

			a, ok := byKey[key]
			if !ok {
				a = &aggregate{mention: c.newMention(name, item), workspaces: make(map[string]struct{})}
				byKey[key] = a
				order = append(order, a)
				keys = append(keys, key)
				agg.Label(key, name)
			}
			a.mention.Count++
			if _, seen := a.workspaces[ws.ID]; !seen && ws.ID != "" {
				a.workspaces[ws.ID] = struct{}{}
				a.mention.Workspaces = append(a.mention.Workspaces, ws.ID)
			}
		}
		agg.Observe(wsKeys)
	}

	out := make([]catalog.Mention, len(order))
	for i, a := range order {
		a.mention.OftenWith = agg.Top(keys[i], catalog.MaxOftenWith)
		out[i] = a.mention
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func (c *Collector) newMention(name string, item Item) catalog.Mention {
	brand, model := strings.TrimSpace(item.Brand), strings.TrimSpace(item.Model)
	if brand == "" {
		var detected string
		brand, detected = c.canon.DetectBrand(name)
		if model == "" {
			model = detected
		}
	}
	return catalog.Mention{
		Name:        name,
		Brand:       brand,
		Model:       model,
		Description: item.Description,
		URL:         item.URL,
		Category:    c.classifier.Classify(name, item.Description),
		Workspaces:  []string{},
	}
}

func cleanRefs(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r == "" || strings.HasPrefix(r, "#") {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ctxErr prefers the context's own error over the limiter's.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
