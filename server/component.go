package server

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/lifecycle/component"
	"github.com/kbukum/lifecycle/observability"
	"github.com/kbukum/lifecycle/server/endpoint"
)

// DefaultName is the name the admin server is usually registered under.
const DefaultName = "admin"

var (
	_ component.Component                 = (*AdminComponent)(nil)
	_ component.AllComponentsLoadedHook   = (*AdminComponent)(nil)
	_ component.AllComponentsStoppingHook = (*AdminComponent)(nil)
	_ component.HealthChecker             = (*AdminComponent)(nil)
	_ component.Describable                = (*AdminComponent)(nil)
	_ component.RouteProvider             = (*AdminComponent)(nil)
)

// Option configures the admin component.
type Option func(*options)

type options struct {
	info     endpoint.ServiceInfo
	routes   []func(*gin.Engine)
	handlers []mountedHandler
}

type mountedHandler struct {
	pattern string
	handler http.Handler
}

// WithServiceInfo sets the service name and version reported by /health and /info.
func WithServiceInfo(name, version string) Option {
	return func(o *options) { o.info = endpoint.ServiceInfo{Name: name, Version: version} }
}

// WithRoutes registers additional routes on the admin engine.
func WithRoutes(register func(*gin.Engine)) Option {
	return func(o *options) { o.routes = append(o.routes, register) }
}

// WithHandler mounts a plain http.Handler next to the Gin engine, e.g.
// net/http/pprof under "/debug/pprof/".
func WithHandler(pattern string, handler http.Handler) Option {
	return func(o *options) {
		o.handlers = append(o.handlers, mountedHandler{pattern: pattern, handler: handler})
	}
}

// AdminComponent serves the registry's state over HTTP.
type AdminComponent struct {
	name   string
	server *Server
}

// NewFactory returns a factory for the admin component. The port is bound
// in OnAllComponentsLoaded and released in OnAllComponentsAreStopping.
func NewFactory(cfg Config, opts ...Option) component.Factory {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return func(c *component.Context) (component.Component, error) {
		s := New(cfg, c.Logger())
		s.ApplyMiddleware()
		s.RegisterDefaultEndpoints(o.info, c.Inspector())
		for _, register := range o.routes {
			register(s.GinEngine())
		}
		for _, h := range o.handlers {
			s.Handle(h.pattern, h.handler)
		}
		return &AdminComponent{name: c.Name(), server: s}, nil
	}
}

// Server returns the underlying server.
func (a *AdminComponent) Server() *Server { return a.server }

// OnAllComponentsLoaded binds the port.
func (a *AdminComponent) OnAllComponentsLoaded(ctx context.Context) error {
	return a.server.Start(ctx)
}

// OnAllComponentsAreStopping drains in-flight requests.
func (a *AdminComponent) OnAllComponentsAreStopping(ctx context.Context) error {
	return a.server.Stop(ctx)
}

// Close releases the listener if Stop did not.
func (a *AdminComponent) Close() error {
	return a.server.Close()
}

// Health reports down until the port is bound.
func (a *AdminComponent) Health(ctx context.Context) component.Health {
	if a.server.Listening() {
		return component.Health{Name: a.name, Status: observability.HealthStatusUp}
	}
	return component.Health{
		Name:    a.name,
		Status:  observability.HealthStatusDown,
		Message: "admin server is not listening",
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (a *AdminComponent) Describe() component.Description {
	return component.Description{
		Name:    "Admin Server",
		Type:    "server",
		Details: a.server.Addr() + " (h2c)",
		Port:    a.server.config.Port,
	}
}

// Routes returns all registered HTTP routes, API routes before system ones.
func (a *AdminComponent) Routes() []component.Route {
	ginRoutes := a.server.engine.Routes()

	sort.Slice(ginRoutes, func(i, j int) bool {
		iSys := systemPaths[ginRoutes[i].Path]
		jSys := systemPaths[ginRoutes[j].Path]
		if iSys != jSys {
			return !iSys
		}
		if ginRoutes[i].Path != ginRoutes[j].Path {
			return ginRoutes[i].Path < ginRoutes[j].Path
		}
		return methodOrder(ginRoutes[i].Method) < methodOrder(ginRoutes[j].Method)
	})

	routes := make([]component.Route, 0, len(ginRoutes))
	for _, r := range ginRoutes {
		handler := formatHandlerName(r.Handler)
		if systemPaths[r.Path] {
			handler += " (system)"
		}
		routes = append(routes, component.Route{
			Method:  r.Method,
			Path:    r.Path,
			Handler: handler,
		})
	}
	return routes
}
