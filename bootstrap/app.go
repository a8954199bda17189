package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/lifecycle/component"
	"github.com/kbukum/lifecycle/config"
	"github.com/kbukum/lifecycle/dag"
	lcerrors "github.com/kbukum/lifecycle/errors"
	"github.com/kbukum/lifecycle/logger"
	"github.com/kbukum/lifecycle/observability"
	"github.com/kbukum/lifecycle/server"
)

// App runs a component registry as a service.
// The type parameter C is the config type; any struct embedding
// config.ServiceConfig satisfies config.Config.
//
// Example:
//
//	app, err := bootstrap.NewApp(&myConfig)
//	app.Register("db", newDB)
//	app.Run(context.Background())
type App[C config.Config] struct {
	Name       string
	Version    string
	Cfg        C
	Components *component.Registry
	Logger     *logger.Logger
	Tracer     *observability.Tracer
	Summary    *Summary

	gracefulTimeout time.Duration
	topologyFile    string

	// shutdowns flush telemetry providers created by NewApp.
	shutdowns []func(context.Context) error
	downOnce  sync.Once

	onReady []Hook
	onStop  []Hook
}

// NewApp creates a new application instance from a typed config.
// It applies defaults, validates the config, and initializes the logger,
// tracer, metrics and registry. When the admin server is enabled it is
// registered as a component.
func NewApp[C config.Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	base := cfg.GetServiceConfig()
	o := resolveOptions(opts)

	app := &App[C]{
		Name:            base.Name,
		Version:         base.Version,
		Cfg:             cfg,
		gracefulTimeout: base.Shutdown.GracefulTimeout,
		topologyFile:    base.Topology,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}
	if o.topologyFile != "" {
		app.topologyFile = o.topologyFile
	}

	// Logger: use custom if provided, otherwise init from config.
	if o.logger != nil {
		app.Logger = o.logger
	} else {
		logger.Init(&base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}

	tp, err := app.tracerProvider(base, o.tracerProvider)
	if err != nil {
		return nil, err
	}
	app.Tracer = observability.NewTracer(base.Name, tp)

	metrics, err := app.lifecycleMetrics(base, o.meterProvider)
	if err != nil {
		app.shutdownTelemetry(context.Background())
		return nil, err
	}

	app.Components = component.NewRegistry(
		component.WithLogger(app.Logger),
		component.WithTracer(app.Tracer),
		component.WithMetrics(metrics),
	)

	if base.Admin.Enabled {
		factory := server.NewFactory(base.Admin, server.WithServiceInfo(base.Name, base.Version))
		if err := app.Components.Register(server.DefaultName, factory); err != nil {
			app.shutdownTelemetry(context.Background())
			return nil, err
		}
	}

	app.Summary = NewSummary(base.Name, base.Version)
	return app, nil
}

func (a *App[C]) tracerProvider(base *config.ServiceConfig, override trace.TracerProvider) (trace.TracerProvider, error) {
	if override != nil {
		return override, nil
	}
	if !base.Tracing.Enabled {
		return nil, nil
	}
	tp, err := observability.InitTracer(context.Background(), base.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.shutdowns = append(a.shutdowns, tp.Shutdown)
	return tp, nil
}

func (a *App[C]) lifecycleMetrics(base *config.ServiceConfig, override metric.MeterProvider) (*observability.LifecycleMetrics, error) {
	mp := override
	if mp == nil && base.Metrics.Enabled {
		sdkProvider, err := observability.InitMeter(context.Background(), base.Metrics)
		if err != nil {
			return nil, fmt.Errorf("init meter: %w", err)
		}
		a.shutdowns = append(a.shutdowns, sdkProvider.Shutdown)
		mp = sdkProvider
	}
	if mp == nil {
		return nil, nil
	}
	return observability.NewLifecycleMetrics(mp.Meter(base.Name))
}

// Register adds a component to the registry. See component.Registry.Register.
func (a *App[C]) Register(name string, factory component.Factory, dependsOn ...string) error {
	return a.Components.Register(name, factory, dependsOn...)
}

// BringUp applies the topology file, if any, and brings every component up.
// On failure the caller still owns BringDown.
func (a *App[C]) BringUp(ctx context.Context) error {
	if err := a.applyTopology(); err != nil {
		return err
	}
	return a.Components.BringUp(ctx)
}

// applyTopology adds the dependency edges from the topology file.
func (a *App[C]) applyTopology() error {
	if a.topologyFile == "" {
		return nil
	}
	specs, err := dag.LoadSpecs(a.topologyFile)
	if err != nil {
		return lcerrors.Configuration("invalid topology: %v", err).WithCause(err)
	}
	for _, spec := range specs {
		if err := a.Components.AddDependencies(spec.Name, spec.DependsOn...); err != nil {
			return err
		}
	}
	a.Logger.Debug("Topology applied", map[string]interface{}{
		"file":            a.topologyFile,
		logger.FieldCount: len(specs),
	})
	return nil
}

// BringDown stops every component within the graceful timeout and flushes
// telemetry. It never fails; problems are logged. Calling it again is a no-op.
func (a *App[C]) BringDown() {
	a.downOnce.Do(func() {
		a.Logger.Info("Shutting down application", map[string]interface{}{
			"timeout": a.gracefulTimeout.String(),
		})

		ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
		defer cancel()

		a.Components.BringDown(ctx)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			a.Logger.Warn("Graceful timeout exceeded during shutdown")
		}
		a.shutdownTelemetry(ctx)
		a.Logger.Info("Application shutdown complete")
	})
}

func (a *App[C]) shutdownTelemetry(ctx context.Context) {
	for _, shutdown := range a.shutdowns {
		if err := shutdown(ctx); err != nil {
			a.Logger.Warn("Telemetry shutdown error", map[string]interface{}{
				logger.FieldError: err.Error(),
			})
		}
	}
	a.shutdowns = nil
}

// Run executes the full lifecycle for long-running services:
// BringUp, OnReady hooks, summary, wait for a signal or ctx, OnStop hooks,
// BringDown. SIGINT or SIGTERM during BringUp cancels the load.
func (a *App[C]) Run(ctx context.Context) error {
	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := a.startup(sigCtx); err != nil {
		return err
	}

	a.Logger.Info("Application ready, waiting for shutdown signal")
	<-sigCtx.Done()
	a.logShutdownCause(ctx, "graceful shutdown starting")

	return a.stop()
}

// RunTask executes a finite task between bring-up and bring-down. SIGINT or
// SIGTERM cancels bring-up or the task context. The task error wins over a
// shutdown hook error.
//
// Example:
//
//	app.RunTask(ctx, func(ctx context.Context) error {
//	    return migrate(ctx)
//	})
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if err := a.startup(sigCtx); err != nil {
		return err
	}

	taskErr := task(sigCtx)
	if sigCtx.Err() != nil {
		a.logShutdownCause(ctx, "task canceled")
	}

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

func (a *App[C]) logShutdownCause(parent context.Context, msg string) {
	if parent.Err() != nil {
		a.Logger.Info("Context canceled, " + msg)
		return
	}
	a.Logger.Info("Received shutdown signal, " + msg)
}

// startup brings the registry up and runs OnReady hooks. Any failure brings
// the registry down before returning.
func (a *App[C]) startup(ctx context.Context) error {
	start := time.Now()

	a.Logger.Info("Starting application", map[string]interface{}{
		"name":    a.Name,
		"version": a.Version,
	})

	if err := a.BringUp(ctx); err != nil {
		a.Logger.Error("Bring-up failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		a.BringDown()
		return fmt.Errorf("bring-up failed: %w", err)
	}

	if err := runHooks(ctx, a.onReady); err != nil {
		a.BringDown()
		return fmt.Errorf("onReady hook failed: %w", err)
	}

	a.Summary.SetStartupDuration(time.Since(start))
	a.DisplaySummary()
	return nil
}

// stop runs OnStop hooks and brings the registry down.
func (a *App[C]) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	hookErr := runHooks(ctx, a.onStop)
	if hookErr != nil {
		a.Logger.Error("OnStop hook error", map[string]interface{}{
			logger.FieldError: hookErr.Error(),
		})
	}

	a.BringDown()
	return hookErr
}

// DisplaySummary prints the startup summary for the registry.
func (a *App[C]) DisplaySummary() {
	a.Summary.DisplaySummary(a.Components)
}

// WaitForSignal blocks until an OS interrupt/term signal or context cancellation.
func (a *App[C]) WaitForSignal(ctx context.Context) os.Signal {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Received shutdown signal, graceful shutdown starting", map[string]interface{}{
			"signal": sig.String(),
		})
		return sig
	case <-ctx.Done():
		a.Logger.Info("Context canceled, shutting down")
		return nil
	}
}
