package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/lifecycle/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// Enabled turns on OTLP metric export.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// ServiceName is the name of the service.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
	// ServiceVersion is the version of the service.
	ServiceVersion string `yaml:"service_version" mapstructure:"service_version"`
	// Environment is the deployment environment (dev, staging, prod).
	Environment string `yaml:"environment" mapstructure:"environment"`
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	// Insecure allows insecure connections (for development).
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter creates an OTLP/HTTP backed meter provider.
// It should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// LifecycleMetrics holds the instruments recorded by the component registry.
// A nil *LifecycleMetrics is valid and records nothing.
type LifecycleMetrics struct {
	constructDuration metric.Float64Histogram
	constructFailures metric.Int64Counter
	stopDuration      metric.Float64Histogram
	phaseDuration     metric.Float64Histogram
	hookFailures      metric.Int64Counter
	instances         metric.Int64UpDownCounter
}

// NewLifecycleMetrics creates the lifecycle instruments on meter.
func NewLifecycleMetrics(meter metric.Meter) (*LifecycleMetrics, error) {
	constructDuration, err := meter.Float64Histogram(
		"component.construct.duration",
		metric.WithDescription("Time spent in a component factory"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating construct duration histogram: %w", err)
	}

	constructFailures, err := meter.Int64Counter(
		"component.construct.failures",
		metric.WithDescription("Number of component factories that failed"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating construct failures counter: %w", err)
	}

	stopDuration, err := meter.Float64Histogram(
		"component.stop.duration",
		metric.WithDescription("Time spent closing a component"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stop duration histogram: %w", err)
	}

	phaseDuration, err := meter.Float64Histogram(
		"lifecycle.phase.duration",
		metric.WithDescription("Duration of a lifecycle phase"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating phase duration histogram: %w", err)
	}

	hookFailures, err := meter.Int64Counter(
		"component.hook.failures",
		metric.WithDescription("Number of lifecycle hooks that returned an error"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hook failures counter: %w", err)
	}

	instances, err := meter.Int64UpDownCounter(
		"component.instances",
		metric.WithDescription("Number of live component instances"),
		metric.WithUnit("{instance}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating instances counter: %w", err)
	}

	return &LifecycleMetrics{
		constructDuration: constructDuration,
		constructFailures: constructFailures,
		stopDuration:      stopDuration,
		phaseDuration:     phaseDuration,
		hookFailures:      hookFailures,
		instances:         instances,
	}, nil
}

// RecordConstruct records the outcome of a component factory.
func (m *LifecycleMetrics) RecordConstruct(ctx context.Context, component string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrComponentName, component),
		attribute.String(AttrStatus, statusOf(err)),
	)
	m.constructDuration.Record(ctx, durationMs(duration), attrs)
	if err != nil {
		m.constructFailures.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrComponentName, component)))
		return
	}
	m.instances.Add(ctx, 1)
}

// RecordStop records the outcome of closing a component.
func (m *LifecycleMetrics) RecordStop(ctx context.Context, component string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stopDuration.Record(ctx, durationMs(duration), metric.WithAttributes(
		attribute.String(AttrComponentName, component),
		attribute.String(AttrStatus, statusOf(err)),
	))
	m.instances.Add(ctx, -1)
}

// RecordPhase records the duration of a lifecycle phase.
func (m *LifecycleMetrics) RecordPhase(ctx context.Context, phase string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.phaseDuration.Record(ctx, durationMs(duration), metric.WithAttributes(
		attribute.String(AttrPhase, phase),
		attribute.String(AttrStatus, statusOf(err)),
	))
}

// RecordHookFailure counts a failed lifecycle hook.
func (m *LifecycleMetrics) RecordHookFailure(ctx context.Context, component, hook string) {
	if m == nil {
		return
	}
	m.hookFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrComponentName, component),
		attribute.String("hook", hook),
	))
}

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func durationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
