package component

import (
	"context"
	"slices"
	"time"

	lcerrors "github.com/kbukum/lifecycle/errors"
	"github.com/kbukum/lifecycle/observability"
)

// Status is a point-in-time view of one component.
type Status struct {
	Name              string        `json:"name"`
	Stage             Stage         `json:"stage"`
	DependsOn         []string      `json:"depends_on"`
	Dependents        []string      `json:"dependents"`
	ConstructDuration time.Duration `json:"construct_duration_ns"`
	Description       *Description  `json:"description,omitempty"`
}

// Inspector is a read-only view of a Registry, e.g. for admin endpoints.
type Inspector interface {
	RunID() string
	Names() []string
	Stage(name string) (Stage, bool)
	ConstructionOrder() []string
	Snapshot() []Status
	HealthAll(ctx context.Context) []Health
}

var _ Inspector = (*Registry)(nil)

// RunID returns the id of the current bring-up, empty before BringUp.
func (r *Registry) RunID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runID
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}

// Get returns the live instance of name, if any.
func (r *Registry) Get(name string) (Component, bool) {
	rec := r.record(name)
	if rec == nil {
		return nil, false
	}
	inst := rec.get()
	return inst, inst != nil
}

// Stage returns the stage of name.
func (r *Registry) Stage(name string) (Stage, bool) {
	rec := r.record(name)
	if rec == nil {
		return StageUninitialized, false
	}
	return rec.Stage(), true
}

// ConstructionOrder returns the order in which components were created
// during this run. BringDown closes them in reverse.
func (r *Registry) ConstructionOrder() []string {
	r.orderMu.Lock()
	defer r.orderMu.Unlock()
	return slices.Clone(r.order)
}

// Levels returns the dependency levels of the graph, nil before BringUp.
func (r *Registry) Levels() [][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.graph == nil {
		return nil
	}
	return r.graph.Levels
}

// WaitForStage blocks until name reaches stage. It fails with a stage
// switching error if the run is cancelled or ctx ends first.
func (r *Registry) WaitForStage(ctx context.Context, name string, stage Stage) error {
	rec := r.record(name)
	if rec == nil {
		return lcerrors.Configuration("component %q is not registered", name)
	}
	return rec.waitForStage(ctx, stage, "WaitForStage("+name+", "+stage.String()+")")
}

// Snapshot returns the status of every component in registration order.
func (r *Registry) Snapshot() []Status {
	records := r.recordsSnapshot()
	out := make([]Status, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.status())
	}
	return out
}

// HealthAll reports the health of every component in registration order.
// Components that do not implement HealthChecker are reported from their
// stage: running is up, created or stopping is degraded, anything else is
// down.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	records := r.recordsSnapshot()
	out := make([]Health, 0, len(records))
	for _, rec := range records {
		stage := rec.Stage()
		inst := rec.get()

		var h Health
		if checker, ok := inst.(HealthChecker); ok {
			h = checker.Health(ctx)
		} else {
			h = Health{Status: stageHealth(stage)}
		}
		if h.Name == "" {
			h.Name = rec.name
		}
		h.Stage = stage.String()
		out = append(out, h)
	}
	return out
}

func stageHealth(s Stage) observability.HealthStatus {
	switch s {
	case StageRunning:
		return observability.HealthStatusUp
	case StageCreated, StageStopping:
		return observability.HealthStatusDegraded
	default:
		return observability.HealthStatusDown
	}
}
