package component

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/kbukum/lifecycle/dag"
	lcerrors "github.com/kbukum/lifecycle/errors"
	"github.com/kbukum/lifecycle/logger"
	"github.com/kbukum/lifecycle/observability"
)

type registryState int

const (
	stateIdle registryState = iota
	stateBringingUp
	stateUp
	stateFailed
	stateDown
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithTracer sets the tracer used for lifecycle spans. Defaults to a no-op
// tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(r *Registry) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithMetrics sets the lifecycle instruments. Defaults to none.
func WithMetrics(m *observability.LifecycleMetrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// Registry coordinates construction, activation and teardown of a set of
// interdependent components. A Registry runs through one bring-up and one
// bring-down; it cannot be restarted.
type Registry struct {
	log     *logger.Logger
	tracer  *observability.Tracer
	metrics *observability.LifecycleMetrics

	mu          sync.RWMutex
	names       []string
	deps        map[string][]string
	records     map[string]*record
	graph       *dag.Result
	state       registryState
	runID       string
	runCancel   context.CancelFunc
	bringUpDone chan struct{}
	downDone    chan struct{}

	// order is the attach order of the current run.
	orderMu sync.Mutex
	order   []string

	cancelled atomic.Bool
	failMu    sync.Mutex
	failure   error

	// afterAttach, when set, runs right after a component is attached.
	afterAttach func(name string)
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		log:     logger.GetGlobalLogger(),
		tracer:  observability.NoopTracer(),
		deps:    make(map[string][]string),
		records: make(map[string]*record),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a component. dependsOn names the components that must be
// created before factory runs. Registration closes once BringUp starts.
func (r *Registry) Register(name string, factory Factory, dependsOn ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateIdle {
		return lcerrors.Configuration("cannot register component %q after bring-up has started", name)
	}
	if name == "" {
		return lcerrors.Configuration("component name must not be empty")
	}
	if factory == nil {
		return lcerrors.Configuration("component %q has no factory", name)
	}
	if _, exists := r.records[name]; exists {
		return lcerrors.Configuration("component %q is registered more than once", name)
	}

	r.names = append(r.names, name)
	r.deps[name] = slices.Clone(dependsOn)
	r.records[name] = newRecord(name, factory, r.log, r.tracer, r.metrics)

	r.log.Debug("Component registered", map[string]interface{}{
		logger.FieldComponent:  name,
		logger.FieldDependency: dependsOn,
	})
	return nil
}

// AddDependencies declares extra dependencies for an already registered
// component, e.g. from a topology file.
func (r *Registry) AddDependencies(name string, dependsOn ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != stateIdle {
		return lcerrors.Configuration("cannot change dependencies of %q after bring-up has started", name)
	}
	if _, exists := r.records[name]; !exists {
		return lcerrors.Configuration("cannot add dependencies to unknown component %q", name)
	}
	for _, dep := range dependsOn {
		if !slices.Contains(r.deps[name], dep) {
			r.deps[name] = append(r.deps[name], dep)
		}
	}
	return nil
}

// BringUp builds the dependency graph, constructs every component and runs
// OnAllComponentsLoaded in construction order. It returns the first
// construction or activation failure. After a failure the caller still owns
// teardown through BringDown.
func (r *Registry) BringUp(ctx context.Context) error {
	r.mu.Lock()
	if r.state != stateIdle {
		r.mu.Unlock()
		return lcerrors.Configuration("bring-up can only run once")
	}

	specs := make([]dag.Spec, 0, len(r.names))
	for _, name := range r.names {
		specs = append(specs, dag.Spec{Name: name, DependsOn: r.deps[name]})
	}
	graph, err := dag.Build(specs)
	if err != nil {
		r.state = stateFailed
		records := r.recordsLocked()
		r.mu.Unlock()
		for _, rec := range records {
			rec.signalCancelled()
		}
		r.log.Error("Invalid component graph", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return err
	}

	for _, name := range graph.Order {
		r.records[name].setEdges(graph.DependsOn(name), graph.Dependents(name))
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.graph = graph
	r.runID = uuid.NewString()
	r.runCancel = cancel
	r.state = stateBringingUp
	r.bringUpDone = make(chan struct{})
	done := r.bringUpDone
	r.mu.Unlock()
	defer close(done)

	log := r.log.WithFields(map[string]interface{}{logger.FieldRunID: r.runID})
	log.Info("Loading components", map[string]interface{}{
		logger.FieldCount: len(graph.Order),
		"levels":          len(graph.Levels),
	})

	if err := r.construct(ctx, runCtx, graph); err != nil {
		r.setState(stateFailed)
		log.Error("Components load failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return err
	}

	if err := r.activate(runCtx); err != nil {
		r.setState(stateFailed)
		return err
	}

	for _, name := range r.ConstructionOrder() {
		r.records[name].advance(StageRunning)
	}
	r.setState(stateUp)
	log.Info("All components loaded", map[string]interface{}{
		logger.FieldCount: len(graph.Order),
	})
	return nil
}

// construct runs one goroutine per component and waits for all of them.
// The caller's ctx ending cancels the whole load.
func (r *Registry) construct(callerCtx, runCtx context.Context, graph *dag.Result) error {
	ctx, phase := observability.StartPhase(runCtx, r.tracer, r.metrics, observability.SpanComponentsLoad, r.runID)

	watchDone := make(chan struct{})
	stopWatch := context.AfterFunc(callerCtx, func() {
		defer close(watchDone)
		r.log.Warn("Bring-up context ended, cancelling components load", map[string]interface{}{
			logger.FieldError: context.Cause(callerCtx).Error(),
		})
		r.cancelAll()
	})

	var wg sync.WaitGroup
	for _, name := range graph.Order {
		rec := r.records[name]
		deps := graph.DependsOn(name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.constructOne(ctx, rec, deps)
		}()
	}
	wg.Wait()
	if !stopWatch() {
		// The caller's ctx ended; let cancelAll finish so the load
		// reports as cancelled.
		<-watchDone
	}

	err := r.loadError()
	phase.End(ctx, err)
	return err
}

func (r *Registry) loadError() error {
	r.failMu.Lock()
	defer r.failMu.Unlock()
	if r.failure != nil {
		return r.failure
	}
	if r.cancelled.Load() {
		return lcerrors.StageSwitchingCancelled("components load")
	}
	return nil
}

// constructOne waits for every dependency, then runs the factory and
// attaches the instance.
func (r *Registry) constructOne(ctx context.Context, rec *record, deps []string) {
	for _, dep := range deps {
		if _, err := r.records[dep].waitForCreated(ctx); err != nil {
			rec.log.Debug("Construction cancelled while waiting for dependency", map[string]interface{}{
				logger.FieldDependency: dep,
			})
			return
		}
	}
	if rec.isCancelled() || r.cancelled.Load() {
		rec.log.Debug("Construction cancelled before factory call")
		return
	}

	ctx, span := r.tracer.StartSpan(ctx, observability.SpanComponentConstruct,
		attribute.String(observability.AttrComponentName, rec.name))
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, r.RunID())

	rec.log.Debug("Creating component")
	start := time.Now()
	var inst Component
	err := callSafely(func() error {
		var ferr error
		inst, ferr = rec.factory(newContext(ctx, r, rec))
		return ferr
	})
	if err == nil && inst == nil {
		err = fmt.Errorf("factory returned a nil component")
	}
	elapsed := time.Since(start)
	observability.SetSpanAttribute(ctx, logger.FieldDuration, elapsed.Milliseconds())

	if err != nil && lcerrors.IsCode(err, lcerrors.ErrCodeConstructionCancelled) {
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "cancelled")
		rec.log.Debug("Construction cancelled", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
		return
	}
	r.metrics.RecordConstruct(ctx, rec.name, elapsed, err)
	if err != nil {
		observability.SetSpanError(ctx, err)
		span.SetStatus(codes.Error, err.Error())
		r.fail(rec.name, err)
		return
	}

	// The run order is appended under the record lock, before waiters on
	// this record are woken, so a dependent can never be listed first.
	err = rec.attach(inst, func() {
		rec.constructDuration = elapsed
		r.orderMu.Lock()
		r.order = append(r.order, rec.name)
		r.orderMu.Unlock()
	})
	if err != nil {
		r.fail(rec.name, err)
		return
	}
	if r.afterAttach != nil {
		r.afterAttach(rec.name)
	}

	rec.log.Info("Component created", map[string]interface{}{
		logger.FieldDuration: elapsed.Milliseconds(),
	})

	// BringDown gave up waiting for this constructor; nobody else will
	// close the instance.
	if r.isDown() {
		rec.log.Warn("Component created after bring-down, stopping it")
		rec.invokeAllStopping(ctx)
		rec.clear(ctx)
	}
}

func (r *Registry) isDown() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateDown
}

// fail records the first construction failure and cancels the load.
// Later failures are logged only.
func (r *Registry) fail(name string, err error) {
	appErr := lcerrors.ConstructionFailed(name, err)

	r.failMu.Lock()
	first := r.failure == nil && !r.cancelled.Load()
	if first {
		r.failure = appErr
	}
	r.failMu.Unlock()

	fields := map[string]interface{}{
		logger.FieldComponent: name,
		logger.FieldError:     err.Error(),
		logger.FieldCode:      string(appErr.Code),
	}
	if !first {
		r.log.Warn("Component construction failed after load was cancelled", fields)
		return
	}
	r.log.Error(appErr.Message, fields)
	r.cancelAll()
}

// cancelAll cancels the load: components not yet created are signalled,
// created ones get their cancellation hook, and the run context ends.
func (r *Registry) cancelAll() {
	r.cancelled.Store(true)
	r.mu.RLock()
	runCancel := r.runCancel
	r.mu.RUnlock()
	if runCancel != nil {
		runCancel()
	}
	for _, rec := range r.recordsSnapshot() {
		if rec.Stage() < StageCreated {
			rec.signalCancelled()
		} else {
			rec.invokeCancelHook()
		}
	}
}

// activate runs OnAllComponentsLoaded in construction order and stops at
// the first failure.
func (r *Registry) activate(runCtx context.Context) error {
	ctx, phase := observability.StartPhase(runCtx, r.tracer, r.metrics, observability.SpanComponentsActivate, r.runID)

	var err error
	for _, name := range r.ConstructionOrder() {
		if r.cancelled.Load() {
			err = lcerrors.StageSwitchingCancelled("components activation")
			break
		}
		if err = r.records[name].invokeAllLoaded(ctx); err != nil {
			break
		}
	}
	phase.End(ctx, err)
	return err
}

// BringDown stops everything BringUp started. An in-flight BringUp is
// cancelled and awaited first. Every component gets
// OnAllComponentsAreStopping, then components are closed in the reverse of
// their construction order. Failures are logged. Safe to call more than
// once and from several goroutines.
func (r *Registry) BringDown(ctx context.Context) {
	r.mu.Lock()
	if r.downDone != nil {
		done := r.downDone
		r.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	downDone := make(chan struct{})
	r.downDone = downDone
	defer close(downDone)

	prev := r.state
	r.state = stateDown
	bringUpDone := r.bringUpDone
	runCancel := r.runCancel
	r.mu.Unlock()

	if prev == stateIdle {
		return
	}

	log := r.log.WithFields(map[string]interface{}{logger.FieldRunID: r.RunID()})
	if prev == stateBringingUp {
		log.Info("Cancelling components load in progress")
		r.cancelAll()
		select {
		case <-bringUpDone:
		case <-ctx.Done():
			log.Warn("Timed out waiting for bring-up to return, stopping anyway", map[string]interface{}{
				logger.FieldError: ctx.Err().Error(),
			})
		}
	}

	ctx, phase := observability.StartPhase(ctx, r.tracer, r.metrics, observability.SpanComponentsStop, r.RunID())
	log.Info("Stopping components")

	order := r.ConstructionOrder()
	for i := len(order) - 1; i >= 0; i-- {
		r.records[order[i]].invokeAllStopping(ctx)
	}
	for i := len(order) - 1; i >= 0; i-- {
		r.records[order[i]].clear(ctx)
	}

	for _, rec := range r.recordsSnapshot() {
		rec.signalCancelled()
	}
	if runCancel != nil {
		runCancel()
	}

	phase.End(ctx, nil)
	log.Info("All components stopped", map[string]interface{}{
		logger.FieldCount:    len(order),
		logger.FieldDuration: phase.Duration().Milliseconds(),
	})
}

func (r *Registry) setState(s registryState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == stateBringingUp {
		r.state = s
	}
}

func (r *Registry) record(name string) *record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.records[name]
}

func (r *Registry) recordsSnapshot() []*record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.recordsLocked()
}

func (r *Registry) recordsLocked() []*record {
	out := make([]*record, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.records[name])
	}
	return out
}
