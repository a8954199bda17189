package bootstrap

import (
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/lifecycle/logger"
)

// Option configures the App during creation.
// Options are non-generic so they can be used with any config type.
type Option func(*appOptions)

// appOptions collects all option values before applying to App.
type appOptions struct {
	logger          *logger.Logger
	tracerProvider  trace.TracerProvider
	meterProvider   metric.MeterProvider
	gracefulTimeout *time.Duration
	topologyFile    string
}

// resolveOptions applies all options and returns the collected values.
func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application.
// If not set, the logger is auto-initialized from the config's Logging field.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithTracerProvider overrides the tracer provider. Without it an OTLP
// provider is built when tracing is enabled, a no-op one otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *appOptions) {
		o.tracerProvider = tp
	}
}

// WithMeterProvider overrides the meter provider used for lifecycle metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *appOptions) {
		o.meterProvider = mp
	}
}

// WithGracefulTimeout sets the maximum duration for BringDown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithTopologyFile adds the dependency edges listed in a YAML topology file
// on top of those given to Register. Edges can only be added, never removed,
// and every name must already be registered.
func WithTopologyFile(path string) Option {
	return func(o *appOptions) {
		o.topologyFile = path
	}
}
