// Package config loads and validates service configuration.
//
// Values come from a YAML file, a .env file and the process environment,
// merged with Viper. Environment variables map onto nested keys by
// underscores, e.g. ADMIN_PORT sets admin.port; WithEnvPrefix restricts this
// to PREFIX_ variables.
//
// # Usage
//
//	var cfg config.ServiceConfig
//	if err := config.Load("orders", &cfg, config.WithEnvPrefix("ORDERS")); err != nil {
//		return err
//	}
//
// Validation uses `validate` struct tags and reports INVALID_CONFIG errors
// keyed by config path.
package config
