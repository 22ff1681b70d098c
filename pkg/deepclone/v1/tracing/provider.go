package tracing

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TracerProvider gives the engine a tracer for DeepCloneContext spans. It
// lets callers hand over their existing OpenTelemetry setup.
type TracerProvider interface {
	// GetTracer returns a Tracer instance with the specified name and options.
	GetTracer(name string, opts ...trace.TracerOption) trace.Tracer

	// Shutdown flushes buffered spans. NoOp implementations return nil.
	Shutdown(ctx context.Context) error
}
