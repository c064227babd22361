package config

import (
	"fmt"
	"net"
	"strconv"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateLogLevel validates a log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}
	for _, l := range validLevels {
		if level == l {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: trace, debug, info, warn, error, fatal, panic, disabled)", level)
}

// ValidateLogFormat validates a log output format
func (v *Validator) ValidateLogFormat(format string) error {
	switch format {
	case "", "json", "console":
		return nil
	}
	return fmt.Errorf("invalid log format: %s (must be json or console)", format)
}

// ValidateAddr validates a host:port listen address
func (v *Validator) ValidateAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return fmt.Errorf("invalid port in listen address %q", addr)
	}
	return nil
}

// ValidateConfig validates an entire configuration
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, fmt.Errorf("logging: %w", err))
	}
	if err := v.ValidateLogFormat(cfg.Logging.Format); err != nil {
		errors = append(errors, fmt.Errorf("logging: %w", err))
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging: max_size must be non-negative"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging: max_age must be non-negative"))
	}

	if cfg.Metrics.Enabled {
		if err := v.ValidateAddr(cfg.Metrics.Addr); err != nil {
			errors = append(errors, fmt.Errorf("metrics: %w", err))
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.ServiceName == "" {
		errors = append(errors, fmt.Errorf("tracing: service_name is required when tracing is enabled"))
	}

	return errors
}
