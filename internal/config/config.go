package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the server configuration. Browser launch options are not
// part of it: they come from the environment and from tool calls.
type Config struct {
	Logging LoggingConfig `json:"logging" mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics" yaml:"metrics"`
	Tracing TracingConfig `json:"tracing" mapstructure:"tracing" yaml:"tracing"`
	Audit   AuditConfig   `json:"audit" mapstructure:"audit" yaml:"audit"`
}

// LoggingConfig contains logging settings. Logs always go to stderr unless a
// file is set, since stdout carries the protocol.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level" yaml:"level"`
	Format    string `json:"format" mapstructure:"format" yaml:"format"` // json, console
	File      string `json:"file" mapstructure:"file" yaml:"file"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size" yaml:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age" yaml:"max_age"`    // days
	Compress  bool   `json:"compress" mapstructure:"compress" yaml:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction" yaml:"redaction"`
}

// MetricsConfig contains Prometheus exporter settings
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr" yaml:"addr"`
}

// TracingConfig contains OpenTelemetry settings
type TracingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	ServiceName string `json:"service_name" mapstructure:"service_name" yaml:"service_name"`
}

// AuditConfig controls the safety audit trail
type AuditConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled" yaml:"enabled"`
	File    string `json:"file" mapstructure:"file" yaml:"file"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9464",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "puppeteer-mcp",
		},
		Audit: AuditConfig{
			Enabled: true,
		},
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	v := NewValidator()
	if errs := v.ValidateConfig(c); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errs[0])
	}
	return nil
}
