package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	intTracing "github.com/gxo-labs/deepclone/internal/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const spanName = "deepclone.DeepClone"

// DeepCloneContext is DeepClone recorded as a span of the configured tracer.
// The clone itself never blocks and ignores cancellation of ctx.
func (e *Engine) DeepCloneContext(ctx context.Context, v any) (any, error) {
	typeName := fmt.Sprintf("%T", v)
	tracer := e.tracerProvider.GetTracer(intTracing.TracerName)
	ctx, span := tracer.Start(ctx, spanName,
		oteltrace.WithAttributes(attribute.String("deepclone.type", typeName)))
	defer span.End()

	start := time.Now()
	out, err := e.DeepClone(v)
	duration := time.Since(start)
	span.SetAttributes(attribute.Int64("deepclone.duration_us", duration.Microseconds()))

	log := e.settings.Load().log
	if err != nil {
		intTracing.RecordError(span, err)
		log.LogCtx(ctx, slog.LevelDebug, "Deep clone failed", "type", typeName, "duration", duration)
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	log.LogCtx(ctx, slog.LevelDebug, "Deep clone finished", "type", typeName, "duration", duration)
	return out, nil
}
