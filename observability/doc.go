// Package observability provides the OpenTelemetry tracing and metrics
// collaborators used by the component registry.
//
// Tracing goes through an explicit *Tracer value rather than the otel global
// provider. Replacing its provider with SetProvider affects every span opened
// afterwards:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("my-service"))
//	defer tp.Shutdown(ctx)
//
//	tracer := observability.NewTracer("my-service", tp)
//	ctx, span := tracer.StartSpan(ctx, "component_stop", attribute.String("component_name", "db"))
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("my-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewLifecycleMetrics(mp.Meter("my-service"))
//	metrics.RecordConstruct(ctx, "db", duration, nil)
package observability
