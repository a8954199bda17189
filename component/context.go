package component

import (
	"context"
	"reflect"

	lcerrors "github.com/kbukum/lifecycle/errors"
	"github.com/kbukum/lifecycle/logger"
	"github.com/kbukum/lifecycle/observability"
)

// Context is handed to a Factory. It gives access to the component's own
// name, logger and tracer, and to the components it declared as
// dependencies.
type Context struct {
	ctx      context.Context
	rec      *record
	registry *Registry
	log      *logger.Logger
}

func newContext(ctx context.Context, reg *Registry, rec *record) *Context {
	return &Context{
		ctx:      ctx,
		rec:      rec,
		registry: reg,
		log:      rec.log.WithFields(map[string]interface{}{logger.FieldRunID: reg.RunID()}),
	}
}

// Name returns the registered name of the component being built.
func (c *Context) Name() string { return c.rec.name }

// Context returns the run context. It carries the bring-up span and is
// cancelled when bring-up is cancelled or the registry is brought down.
func (c *Context) Context() context.Context { return c.ctx }

// Logger returns a logger tagged with the component name and run id.
func (c *Context) Logger() *logger.Logger { return c.log }

// Tracer returns the registry's tracer.
func (c *Context) Tracer() *observability.Tracer { return c.registry.tracer }

// RunID returns the id of the current bring-up.
func (c *Context) RunID() string { return c.registry.RunID() }

// Inspector returns a read-only view of the registry.
func (c *Context) Inspector() Inspector { return c.registry }

// FindComponent returns the instance of a declared dependency, waiting for
// it to be created. Asking for anything that was not declared is a
// configuration error; cancellation yields a construction cancelled error.
func (c *Context) FindComponent(name string) (Component, error) {
	if !c.rec.dependsOnName(name) {
		return nil, lcerrors.Configuration(
			"component %q requested %q which is not one of its declared dependencies", c.rec.name, name)
	}
	dep := c.registry.record(name)
	if dep == nil {
		return nil, lcerrors.Configuration("component %q is not registered", name)
	}
	return dep.waitForCreated(c.ctx)
}

// Find returns the dependency name as type T.
func Find[T any](c *Context, name string) (T, error) {
	var zero T
	comp, err := c.FindComponent(name)
	if err != nil {
		return zero, err
	}
	typed, ok := comp.(T)
	if !ok {
		return zero, lcerrors.Configuration("component %q is %T, not %s", name, comp, reflect.TypeFor[T]())
	}
	return typed, nil
}
