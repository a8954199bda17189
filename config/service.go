package config

import (
	"fmt"
	"time"

	"github.com/kbukum/lifecycle/logger"
	"github.com/kbukum/lifecycle/observability"
	"github.com/kbukum/lifecycle/server"
)

// Config is satisfied by any struct embedding ServiceConfig.
type Config interface {
	GetServiceConfig() *ServiceConfig
	ApplyDefaults()
	Validate() error
}

// ServiceConfig contains the configuration every lifecycle-managed service
// needs. Projects extend it by embedding it in their own config structs.
//
// Example:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Database DatabaseConfig `yaml:"database" mapstructure:"database"`
//	}
type ServiceConfig struct {
	Name        string                     `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string                     `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string                     `yaml:"version" mapstructure:"version"`
	Debug       bool                       `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config              `yaml:"logging" mapstructure:"logging"`
	Tracing     observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics     observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
	Shutdown    ShutdownConfig             `yaml:"shutdown" mapstructure:"shutdown"`
	Admin       server.Config              `yaml:"admin" mapstructure:"admin"`
	// Topology optionally points to a YAML file of extra dependency edges.
	Topology string `yaml:"topology" mapstructure:"topology"`
}

// ShutdownConfig bounds how long BringDown may take.
type ShutdownConfig struct {
	GracefulTimeout time.Duration `yaml:"graceful_timeout" mapstructure:"graceful_timeout" validate:"gte=0"`
}

// GetServiceConfig returns the base ServiceConfig.
// When embedded in a larger config struct, this method is promoted
// so the embedding struct automatically satisfies the Config interface.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to the base configuration.
// Override this in embedding structs and call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Version == "" {
		c.Version = "0.0.0"
	}
	// Propagate service identity so log lines and telemetry resources agree.
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	defTracing := observability.DefaultTracerConfig(c.Name)
	fillString(&c.Tracing.ServiceName, c.Name)
	fillString(&c.Tracing.ServiceVersion, c.Version)
	fillString(&c.Tracing.Environment, c.Environment)
	fillString(&c.Tracing.Endpoint, defTracing.Endpoint)
	if c.Tracing.Enabled && c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = defTracing.SampleRate
	}

	defMetrics := observability.DefaultMeterConfig(c.Name)
	fillString(&c.Metrics.ServiceName, c.Name)
	fillString(&c.Metrics.ServiceVersion, c.Version)
	fillString(&c.Metrics.Environment, c.Environment)
	fillString(&c.Metrics.Endpoint, defMetrics.Endpoint)
	if c.Metrics.Interval == 0 {
		c.Metrics.Interval = defMetrics.Interval
	}

	if c.Shutdown.GracefulTimeout == 0 {
		c.Shutdown.GracefulTimeout = 30 * time.Second
	}
	c.Admin.ApplyDefaults()
}

// Validate validates the base configuration fields.
// Override this in embedding structs and call c.ServiceConfig.Validate() first.
func (c *ServiceConfig) Validate() error {
	if err := Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

func fillString(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
