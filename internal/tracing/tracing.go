// Package tracing wraps otel spans into the Tracing collaborator the AI
// agent chain and chat orchestrator attach trace metadata from:
// trace_id, trace_url, total duration, and time-to-first-token.
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span is one in-flight traced operation.
type Span struct {
	span      trace.Span
	started   time.Time
	firstByte time.Time
}

// Tracer begins traced spans for one chat/ingest operation.
type Tracer struct {
	tracer  trace.Tracer
	baseURL string
}

// NewTracer returns a Tracer that records spans under name via the global
// otel TracerProvider, rendering trace URLs against baseURL (a tracing
// backend's "view trace" URL template, e.g. a Jaeger/Tempo UI).
func NewTracer(name, baseURL string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name), baseURL: baseURL}
}

// Begin starts a span named op, returning it alongside a context carrying
// it for any downstream otel instrumentation to attach to.
func (t *Tracer) Begin(ctx context.Context, op string) (context.Context, *Span) {
	ctx, span := t.tracer.Start(ctx, op)
	return ctx, &Span{span: span, started: time.Now()}
}

// MarkFirstToken records the time of the first streamed token, for
// TimeToFirstToken. Only the first call has any effect.
func (s *Span) MarkFirstToken() {
	if s.firstByte.IsZero() {
		s.firstByte = time.Now()
	}
}

// TraceID returns the span's trace ID as a hex string, or empty if the
// span carries no valid trace ID (as with a no-op span).
func (s *Span) TraceID() string {
	tid := s.span.SpanContext().TraceID()
	if !tid.IsValid() {
		return ""
	}
	return tid.String()
}

// TraceURL returns the tracing backend's URL for this span's trace, or
// empty if the Tracer was constructed with no base URL or the span has no
// trace ID.
func (t *Tracer) TraceURL(s *Span) string {
	if t.baseURL == "" || s.TraceID() == "" {
		return ""
	}
	return fmt.Sprintf("%s/trace/%s", t.baseURL, s.TraceID())
}

// TotalDuration returns the elapsed time since Begin.
func (s *Span) TotalDuration() time.Duration {
	return time.Since(s.started)
}

// TimeToFirstToken returns the elapsed time between Begin and the first
// MarkFirstToken call, or zero if MarkFirstToken was never called.
func (s *Span) TimeToFirstToken() time.Duration {
	if s.firstByte.IsZero() {
		return 0
	}
	return s.firstByte.Sub(s.started)
}

// End completes the span, recording err if non-nil.
func (s *Span) End(err error) {
	if err != nil {
		s.span.RecordError(err)
	}
	s.span.End()
}

// NoopTracer is a Tracer that records nothing — for local development and
// unit tests that don't want a live TracerProvider.
type NoopTracer struct{}

// Begin returns a Span that records real wall-clock durations but an
// otel no-op span, so TraceID/TraceURL are always empty.
func (NoopTracer) Begin(ctx context.Context, _ string) (context.Context, *Span) {
	ctx, span := noop.NewTracerProvider().Tracer("noop").Start(ctx, "noop")
	return ctx, &Span{span: span, started: time.Now()}
}
