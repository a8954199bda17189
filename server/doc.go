// Package server provides the admin HTTP server component.
//
// The server is a Gin engine mounted on an http.ServeMux behind an h2c
// handler. It exposes the registry it lives in:
//
//	GET /health      aggregated component health (503 when any is down)
//	GET /ready       200 once every component is running
//	GET /alive       liveness probe
//	GET /info        service name, version, run id and uptime
//	GET /components  registry snapshot and construction order
//
// Register it like any other component. It binds its port in
// OnAllComponentsLoaded, so it only serves once the whole graph exists, and
// shuts down in OnAllComponentsAreStopping:
//
//	reg.Register(server.DefaultName, server.NewFactory(cfg.Admin,
//		server.WithServiceInfo(cfg.Name, cfg.Version)))
package server
