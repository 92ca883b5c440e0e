// Package observability provides metrics and tracing for the deskspin pipeline
// and spin service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for deskspin. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Pipeline metrics
	MentionsProcessedTotal *prometheus.CounterVec
	MentionsSkippedTotal   *prometheus.CounterVec
	UniqueProducts         prometheus.Gauge
	StageSeconds           *prometheus.HistogramVec

	// Collection metrics
	FetchesTotal *prometheus.CounterVec
	FetchSeconds prometheus.Histogram

	// Catalog metrics
	ImportsTotal     *prometheus.CounterVec
	CategoryProducts *prometheus.GaugeVec

	// Spin metrics
	SpinsTotal      *prometheus.CounterVec
	SpinPicksTotal  *prometheus.CounterVec
	EmptyPoolsTotal *prometheus.CounterVec
	SpinSeconds     prometheus.Histogram
}

// Fetch and spin outcomes.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Pick modes recorded per category.
const (
	PickLocked  = "locked"
	PickSampled = "sampled"
)

// DefaultMetrics creates metrics registered on the default registry.
func DefaultMetrics() *Metrics {
	return NewMetrics(prometheus.DefaultRegisterer)
}

// NewMetrics creates a new set of metrics registered on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		MentionsProcessedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_mentions_processed_total",
				Help: "Mentions seen by the dedupe stage",
			},
			[]string{"outcome"},
		),
		MentionsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_mentions_skipped_total",
				Help: "Mentions dropped before merge, by reason",
			},
			[]string{"reason"},
		),
		UniqueProducts: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deskspin_unique_products",
				Help: "Canonical products produced by the last pipeline run",
			},
		),
		StageSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskspin_stage_seconds",
				Help:    "Pipeline stage latency",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"stage"},
		),

		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_fetches_total",
				Help: "Workspace fetches by outcome",
			},
			[]string{"status"},
		),
		FetchSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deskspin_fetch_seconds",
				Help:    "Workspace fetch latency",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),

		ImportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_catalog_imports_total",
				Help: "Catalog replacements by outcome",
			},
			[]string{"status"},
		),
		CategoryProducts: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deskspin_category_products",
				Help: "Products per spin category after the last import",
			},
			[]string{"category"},
		),

		SpinsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_spins_total",
				Help: "Spin requests by outcome",
			},
			[]string{"status"},
		),
		SpinPicksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_spin_picks_total",
				Help: "Per-category picks by mode",
			},
			[]string{"category", "mode"},
		),
		EmptyPoolsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskspin_empty_pools_total",
				Help: "Categories omitted from a spin because no candidates exist",
			},
			[]string{"category"},
		),
		SpinSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "deskspin_spin_seconds",
				Help:    "Spin latency",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
	}
}

// RecordMentions records how many mentions were merged and how many skipped.
func (m *Metrics) RecordMentions(kept, skipped int) {
	if m == nil {
		return
	}
	m.MentionsProcessedTotal.WithLabelValues("kept").Add(float64(kept))
	m.MentionsProcessedTotal.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordSkips records n mentions dropped for reason.
func (m *Metrics) RecordSkips(reason string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MentionsSkippedTotal.WithLabelValues(reason).Add(float64(n))
}

// SetUniqueProducts sets the product count of the last run.
func (m *Metrics) SetUniqueProducts(n int) {
	if m == nil {
		return
	}
	m.UniqueProducts.Set(float64(n))
}

// RecordStage records a pipeline stage duration.
func (m *Metrics) RecordStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.StageSeconds.WithLabelValues(stage).Observe(seconds)
}

// RecordFetch records one workspace fetch.
func (m *Metrics) RecordFetch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(status).Inc()
	m.FetchSeconds.Observe(seconds)
}

// RecordImport records a catalog replacement and its per-category counts.
func (m *Metrics) RecordImport(status string, perCategory map[string]int) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(status).Inc()
	for category, n := range perCategory {
		m.CategoryProducts.WithLabelValues(category).Set(float64(n))
	}
}

// RecordSpin records a completed spin request.
func (m *Metrics) RecordSpin(status string, seconds float64) {
	if m == nil {
		return
	}
	m.SpinsTotal.WithLabelValues(status).Inc()
	m.SpinSeconds.Observe(seconds)
}

// RecordPick records one category pick.
func (m *Metrics) RecordPick(category, mode string) {
	if m == nil {
		return
	}
	m.SpinPicksTotal.WithLabelValues(category, mode).Inc()
}

// RecordEmptyPool records a category omitted for lack of candidates.
func (m *Metrics) RecordEmptyPool(category string) {
	if m == nil {
		return
	}
	m.EmptyPoolsTotal.WithLabelValues(category).Inc()
}
