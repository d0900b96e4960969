package queue

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/chixm/jobqueue"

// Span names emitted by the queue.
const (
	SpanRun  = "queue.run"
	SpanTask = "queue.task"
)

func defaultTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func startRunSpan(ctx context.Context, tracer trace.Tracer, runID uuid.UUID, policy Policy, total int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanRun, trace.WithAttributes(
		attribute.String("queue.run_id", runID.String()),
		attribute.String("queue.policy", policy.String()),
		attribute.Int("queue.total_tasks", total),
	))
}

func startTaskSpan(ctx context.Context, tracer trace.Tracer, id uuid.UUID, key string, index int) (context.Context, trace.Span) {
	return tracer.Start(ctx, SpanTask, trace.WithAttributes(
		attribute.String("queue.task_key", key),
		attribute.String("queue.task_id", id.String()),
		attribute.Int("queue.task_index", index),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
