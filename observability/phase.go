package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Phase tracks one lifecycle phase (load, activate, stop) with a span and a
// duration metric.
type Phase struct {
	Name      string
	RunID     string
	StartTime time.Time

	metrics *LifecycleMetrics
	span    trace.Span
}

// StartPhase opens the phase span. tracer and metrics may be nil.
func StartPhase(ctx context.Context, tracer *Tracer, metrics *LifecycleMetrics, spanName, runID string) (context.Context, *Phase) {
	ctx, span := tracer.StartSpan(ctx, spanName,
		attribute.String(AttrPhase, spanName),
		attribute.String(AttrRunID, runID),
	)
	return ctx, &Phase{
		Name:      spanName,
		RunID:     runID,
		StartTime: time.Now(),
		metrics:   metrics,
		span:      span,
	}
}

// End closes the span and records the phase duration.
func (p *Phase) End(ctx context.Context, err error) {
	duration := p.Duration()

	if err != nil {
		p.span.RecordError(err)
		p.span.SetStatus(codes.Error, err.Error())
		p.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	p.span.SetAttributes(
		attribute.String(AttrStatus, statusOf(err)),
		attribute.Int64("duration_ms", duration.Milliseconds()),
	)
	p.span.End()

	p.metrics.RecordPhase(ctx, p.Name, duration, err)
}

// Duration returns the elapsed time since the phase started.
func (p *Phase) Duration() time.Duration {
	return time.Since(p.StartTime)
}
