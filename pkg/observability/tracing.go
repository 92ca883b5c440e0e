package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer for deskspin operations.
const TracerName = "deskspin"

// Span attribute keys
const (
	AttrRunID       = "run_id"
	AttrStage       = "stage"
	AttrItem        = "item"
	AttrCategory    = "category"
	AttrLocks       = "locks"
	AttrInput       = "input"
	AttrOutput      = "output"
	AttrErrorCode   = "error_code"
	AttrRetryable   = "retryable"
	AttrCategories  = "categories"
	AttrPickedCount = "picked"
)

// Span names
const (
	SpanPipelineRun = "deskspin.pipeline.run"
	SpanCollect     = "deskspin.collect"
	SpanFetch       = "deskspin.fetch"
	SpanSpin        = "deskspin.spin"
	SpanImport      = "deskspin.import"
)

// Tracer provides distributed tracing for deskspin operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a tracer on the global provider.
func NewTracer() *Tracer {
	return &Tracer{tracer: otel.Tracer(TracerName)}
}

// NewTracerFromProvider creates a tracer on tp.
func NewTracerFromProvider(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(TracerName)}
}

// StartRunSpan starts the root span of a pipeline run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID string, input int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanPipelineRun,
		trace.WithAttributes(
			attribute.String(AttrRunID, runID),
			attribute.Int(AttrInput, input),
		),
	)
}

// StartStageSpan starts a span for a pipeline stage.
func (t *Tracer) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, fmt.Sprintf("deskspin.stage.%s", stage),
		trace.WithAttributes(attribute.String(AttrStage, stage)),
	)
}

// StartCollectSpan starts a span covering one collection batch.
func (t *Tracer) StartCollectSpan(ctx context.Context, items int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanCollect,
		trace.WithAttributes(attribute.Int(AttrInput, items)),
	)
}

// StartFetchSpan starts a span for a single workspace fetch.
func (t *Tracer) StartFetchSpan(ctx context.Context, item string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanFetch,
		trace.WithAttributes(attribute.String(AttrItem, item)),
	)
}

// StartSpinSpan starts a span for one spin request.
func (t *Tracer) StartSpinSpan(ctx context.Context, categories, locks int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanSpin,
		trace.WithAttributes(
			attribute.Int(AttrCategories, categories),
			attribute.Int(AttrLocks, locks),
		),
	)
}

// StartImportSpan starts a span for a catalog replacement.
func (t *Tracer) StartImportSpan(ctx context.Context, products int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanImport,
		trace.WithAttributes(attribute.Int(AttrInput, products)),
	)
}

// SpanHelper provides convenient methods for working with the current span.
type SpanHelper struct {
	span trace.Span
}

// NewSpanHelper creates a new span helper for the given span.
func NewSpanHelper(span trace.Span) *SpanHelper {
	return &SpanHelper{span: span}
}

// SetCounts records input and output sizes of a stage.
func (h *SpanHelper) SetCounts(input, output int) {
	h.span.SetAttributes(
		attribute.Int(AttrInput, input),
		attribute.Int(AttrOutput, output),
	)
}

// SetPicked records how many categories a spin filled.
func (h *SpanHelper) SetPicked(n int) {
	h.span.SetAttributes(attribute.Int(AttrPickedCount, n))
}

// SetError records an error on the span.
func (h *SpanHelper) SetError(err error, code string, retryable bool) {
	h.span.SetStatus(codes.Error, err.Error())
	h.span.SetAttributes(
		attribute.String(AttrErrorCode, code),
		attribute.Bool(AttrRetryable, retryable),
	)
	h.span.RecordError(err)
}

// SetSuccess marks the span as successful.
func (h *SpanHelper) SetSuccess() {
	h.span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span.
func (h *SpanHelper) AddEvent(name string, attrs ...attribute.KeyValue) {
	h.span.AddEvent(name, trace.WithAttributes(attrs...))
}

// GetTraceID returns the trace ID from the context.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
