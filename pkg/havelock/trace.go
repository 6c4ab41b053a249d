package havelock

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for Havelock graphs.
const defaultTracerName = "havelock"

// traceSpan aliases trace.Span so the hot path can carry an optional span
// as a nil-able local.
type traceSpan = trace.Span

// WithTracing attaches the globally registered OpenTelemetry tracer under
// the default tracer name. Equivalent to
// WithTracer(otel.Tracer("havelock")).
//
// Spans recorded:
//   - havelock.commit: application of a root transaction frame, with the
//     number of atoms staged and changed
//   - havelock.propagate: one propagation pass, with the number of changed
//     roots and scheduled reactions
func WithTracing() GraphOption {
	return WithTracer(otel.Tracer(defaultTracerName))
}
