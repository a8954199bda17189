package bootstrap

import (
	"context"
	"fmt"
)

// Hook is a lifecycle callback that runs around bring-up and bring-down.
type Hook func(ctx context.Context) error

// OnReady registers a hook that runs once every component is running.
// A failing hook aborts Run and brings the registry down.
func (a *App[C]) OnReady(hooks ...Hook) {
	a.onReady = append(a.onReady, hooks...)
}

// OnStop registers a hook that runs before BringDown, e.g. to deregister
// from service discovery. Errors are logged.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// runHooks executes a slice of hooks sequentially, returning the first error.
func runHooks(ctx context.Context, hooks []Hook) error {
	for i, h := range hooks {
		if err := h(ctx); err != nil {
			return fmt.Errorf("hook %d failed: %w", i, err)
		}
	}
	return nil
}
