package component

import (
	"context"

	"github.com/kbukum/lifecycle/observability"
)

// Component is a lifecycle-managed unit created by a Factory.
type Component interface {
	// Close releases the component's resources. Errors are logged by the
	// registry and never propagated.
	Close() error
}

// Factory builds a component. It runs on its own goroutine once every
// declared dependency has been created.
type Factory func(c *Context) (Component, error)

// LoadingCancelledHook is notified at most once when bring-up is cancelled
// after the component was created.
type LoadingCancelledHook interface {
	OnLoadingCancelled()
}

// AllComponentsLoadedHook runs once every component has been created.
// Returning an error aborts bring-up.
type AllComponentsLoadedHook interface {
	OnAllComponentsLoaded(ctx context.Context) error
}

// AllComponentsStoppingHook runs before any component is closed.
// Errors are logged only.
type AllComponentsStoppingHook interface {
	OnAllComponentsAreStopping(ctx context.Context) error
}

// Health is the health report of one component.
type Health = observability.Health

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	Health(ctx context.Context) Health
}

// Description holds summary information for the bootstrap display.
// Components that implement Describable return this to self-report
// what they are and how they're configured.
type Description struct {
	// Name is the human-readable display name (e.g., "Admin Server").
	// If empty, the registered name is used.
	Name string `json:"name,omitempty"`
	// Type categorizes the component: "database", "server", "cache", etc.
	Type string `json:"type,omitempty"`
	// Details is a human-readable one-liner shown in the startup summary.
	// Examples: "localhost:5432 pool=25/5", ":8081 h2c"
	Details string `json:"details,omitempty"`
	// Port is the primary port, 0 if not applicable.
	Port int `json:"port,omitempty"`
}

// Describable is optionally implemented by components to provide
// startup summary information.
type Describable interface {
	Describe() Description
}

// Route holds a single HTTP route for the startup summary.
type Route struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Handler string `json:"handler,omitempty"`
}

// RouteProvider is optionally implemented by server components to
// report their registered HTTP routes.
type RouteProvider interface {
	Routes() []Route
}
