// Package logger provides structured logging using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured map fields. Loggers derived with
// WithContext carry the OpenTelemetry trace and span IDs of the active span.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("registry")
//	log.Info("component attached", map[string]interface{}{"stage": "created"})
package logger
