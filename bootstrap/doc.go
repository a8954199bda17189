// Package bootstrap wires configuration, logging, telemetry and a component
// registry into a runnable service.
//
// # Quick Start
//
//	var cfg config.ServiceConfig
//	if err := config.LoadConfig("orders", &cfg); err != nil {
//	    log.Fatal(err)
//	}
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	app.Register("db", newDatabase)
//	app.Register("api", newAPI, "db")
//	app.Register(server.DefaultName, server.NewFactory(cfg.Admin), "api")
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Run brings every component up in dependency order, waits for SIGINT,
// SIGTERM or ctx, and brings them down in reverse. Shutdown is bounded by
// the configured graceful timeout.
package bootstrap
