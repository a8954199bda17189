package component

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	lcerrors "github.com/kbukum/lifecycle/errors"
	"github.com/kbukum/lifecycle/logger"
	"github.com/kbukum/lifecycle/observability"
)

// record holds the lifecycle state of one registered component. All fields
// below mu are guarded by it; cond waits on mu.
type record struct {
	name    string
	factory Factory
	log     *logger.Logger
	tracer  *observability.Tracer
	metrics *observability.LifecycleMetrics

	mu                sync.Mutex
	cond              *sync.Cond
	instance          Component
	stage             Stage
	cancelled         bool
	dependsOn         map[string]struct{}
	dependents        map[string]struct{}
	constructDuration time.Duration

	cancelHookFired atomic.Bool
}

func newRecord(name string, factory Factory, log *logger.Logger, tracer *observability.Tracer, metrics *observability.LifecycleMetrics) *record {
	r := &record{
		name:       name,
		factory:    factory,
		log:        log.WithComponent(name),
		tracer:     tracer,
		metrics:    metrics,
		dependsOn:  make(map[string]struct{}),
		dependents: make(map[string]struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// setEdges stores the direct dependencies and dependents from the graph.
func (r *record) setEdges(dependsOn, dependents []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range dependsOn {
		r.dependsOn[n] = struct{}{}
	}
	for _, n := range dependents {
		r.dependents[n] = struct{}{}
	}
}

// attach stores the constructed instance and moves the record to Created.
// onAttach, if not nil, runs under the record lock before waiters are woken.
// If cancellation was signalled first the instance is still stored and the
// cancellation hook fires.
func (r *record) attach(instance Component, onAttach func()) error {
	r.mu.Lock()
	if r.instance != nil || r.stage != StageUninitialized {
		r.mu.Unlock()
		return lcerrors.Configuration("component %q is already attached", r.name)
	}
	r.instance = instance
	r.stage = StageCreated
	if onAttach != nil {
		onAttach()
	}
	cancelled := r.cancelled
	r.mu.Unlock()
	r.cond.Broadcast()

	if cancelled {
		r.invokeCancelHook()
	}
	return nil
}

// wakeOnDone broadcasts when ctx ends so cond waiters can observe it.
// Taking the lock first makes sure a waiter between its ctx check and
// cond.Wait cannot miss the wakeup.
func (r *record) wakeOnDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, func() {
		r.mu.Lock()
		r.mu.Unlock()
		r.cond.Broadcast()
	})
}

// waitForCreated blocks until an instance is attached or cancellation is
// signalled. Cancellation wins even if an instance is present.
func (r *record) waitForCreated(ctx context.Context) (Component, error) {
	stop := r.wakeOnDone(ctx)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for !r.cancelled && r.instance == nil && r.stage < StageDestroyed && ctx.Err() == nil {
		r.cond.Wait()
	}

	switch {
	case r.cancelled:
		return nil, lcerrors.ConstructionCancelled(r.name, nil)
	case r.instance != nil:
		return r.instance, nil
	default:
		return nil, lcerrors.ConstructionCancelled(r.name, ctx.Err())
	}
}

// signalCancelled marks the record cancelled and wakes every waiter.
// Idempotent.
func (r *record) signalCancelled() {
	r.mu.Lock()
	r.cancelled = true
	hasInstance := r.instance != nil
	r.mu.Unlock()
	r.cond.Broadcast()

	if hasInstance {
		r.invokeCancelHook()
	}
}

func (r *record) isCancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// invokeCancelHook calls OnLoadingCancelled at most once, and only when an
// instance is present.
func (r *record) invokeCancelHook() {
	inst := r.get()
	if inst == nil {
		return
	}
	if r.cancelHookFired.Swap(true) {
		return
	}
	hook, ok := inst.(LoadingCancelledHook)
	if !ok {
		return
	}

	r.log.Info("notifying component that loading was cancelled")
	if err := callSafely(func() error {
		hook.OnLoadingCancelled()
		return nil
	}); err != nil {
		r.log.Error("OnLoadingCancelled() failed", map[string]interface{}{
			logger.FieldError: err.Error(),
		})
	}
}

// invokeAllLoaded runs OnAllComponentsLoaded. Failures are logged and
// returned as an activation error.
func (r *record) invokeAllLoaded(ctx context.Context) error {
	inst := r.get()
	if inst == nil {
		return nil
	}
	hook, ok := inst.(AllComponentsLoadedHook)
	if !ok {
		return nil
	}

	if err := callSafely(func() error { return hook.OnAllComponentsLoaded(ctx) }); err != nil {
		appErr := lcerrors.ActivationFailed(r.name, err)
		r.metrics.RecordHookFailure(ctx, r.name, "on_all_components_loaded")
		r.log.WithContext(ctx).Error(appErr.Message, map[string]interface{}{
			logger.FieldError: err.Error(),
			logger.FieldCode:  string(appErr.Code),
		})
		return appErr
	}
	return nil
}

// invokeAllStopping moves the record to Stopping and runs
// OnAllComponentsAreStopping inside a span. Failures are logged only.
func (r *record) invokeAllStopping(ctx context.Context) {
	r.mu.Lock()
	inst := r.instance
	if inst != nil && r.stage < StageStopping {
		r.stage = StageStopping
	}
	r.mu.Unlock()
	if inst == nil {
		return
	}
	r.cond.Broadcast()

	ctx, span := r.tracer.StartSpan(ctx, observability.SpanOnAllComponentsAreStopping,
		attribute.String(observability.AttrComponentName, r.name))
	defer span.End()

	hook, ok := inst.(AllComponentsStoppingHook)
	if !ok {
		return
	}
	if err := callSafely(func() error { return hook.OnAllComponentsAreStopping(ctx) }); err != nil {
		appErr := lcerrors.StoppingHookFailed(r.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordHookFailure(ctx, r.name, "on_all_components_are_stopping")
		r.log.WithContext(ctx).Error(appErr.Message, map[string]interface{}{
			logger.FieldError: err.Error(),
			logger.FieldCode:  string(appErr.Code),
		})
	}
}

// clear detaches the instance, moves the record to Destroyed and closes the
// instance inside a span. A record without an instance is left untouched.
func (r *record) clear(ctx context.Context) {
	r.mu.Lock()
	inst := r.instance
	if inst == nil {
		r.mu.Unlock()
		return
	}
	r.instance = nil
	r.stage = StageDestroyed
	r.mu.Unlock()
	r.cond.Broadcast()

	ctx, span := r.tracer.StartSpan(ctx, observability.SpanComponentStop,
		attribute.String(observability.AttrComponentName, r.name))
	defer span.End()

	log := r.log.WithContext(ctx)
	log.Info("Stopping component")

	start := time.Now()
	err := callSafely(inst.Close)
	elapsed := time.Since(start)
	r.metrics.RecordStop(ctx, r.name, elapsed, err)

	if err != nil {
		appErr := lcerrors.TeardownFailed(r.name, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error(appErr.Message, map[string]interface{}{
			logger.FieldError:    err.Error(),
			logger.FieldCode:     string(appErr.Code),
			logger.FieldDuration: elapsed.Milliseconds(),
		})
		return
	}
	log.Info("Stopped component", map[string]interface{}{
		logger.FieldDuration: elapsed.Milliseconds(),
	})
}

// advance moves an attached record forward to stage.
func (r *record) advance(stage Stage) {
	r.mu.Lock()
	if r.instance == nil || r.stage >= stage {
		r.mu.Unlock()
		return
	}
	r.stage = stage
	r.mu.Unlock()
	r.cond.Broadcast()
}

// waitForStage blocks until the record reaches target or a later stage.
// Cancellation or the end of ctx yields a stage switching error whose
// message is "<label> cancelled".
func (r *record) waitForStage(ctx context.Context, target Stage, label string) error {
	stop := r.wakeOnDone(ctx)
	defer stop()

	r.mu.Lock()
	defer r.mu.Unlock()
	for r.stage < target && !r.cancelled && ctx.Err() == nil {
		r.cond.Wait()
	}

	if r.stage >= target {
		return nil
	}
	err := lcerrors.StageSwitchingCancelled(label)
	if ctx.Err() != nil && !r.cancelled {
		err = err.WithCause(ctx.Err())
	}
	return err
}

func (r *record) get() Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instance
}

// Stage returns the current stage.
func (r *record) Stage() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

func (r *record) hasInstance() bool {
	return r.get() != nil
}

// dependsOnName reports whether name is a direct dependency.
func (r *record) dependsOnName(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.dependsOn[name]
	return ok
}

// isDependencyOf reports whether name directly depends on this record.
func (r *record) isDependencyOf(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.dependents[name]
	return ok
}

func (r *record) status() Status {
	r.mu.Lock()
	st := Status{
		Name:              r.name,
		Stage:             r.stage,
		DependsOn:         sortedKeys(r.dependsOn),
		Dependents:        sortedKeys(r.dependents),
		ConstructDuration: r.constructDuration,
	}
	inst := r.instance
	r.mu.Unlock()

	if d, ok := inst.(Describable); ok {
		desc := d.Describe()
		st.Description = &desc
	}
	return st
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// callSafely runs fn and turns a panic into an error.
func callSafely(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
