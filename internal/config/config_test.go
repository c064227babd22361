package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File)
	assert.True(t, cfg.Logging.Redaction)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9464", cfg.Metrics.Addr)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, "puppeteer-mcp", cfg.Tracing.ServiceName)
	assert.True(t, cfg.Audit.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Tracing.Enabled = true
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Logging.Level = "loud"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("invalid metrics address when enabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = "not-an-address"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "metrics")
	})

	t.Run("metrics address ignored when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Metrics.Addr = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("tracing requires a service name", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Tracing.Enabled = true
		cfg.Tracing.ServiceName = ""
		assert.Error(t, cfg.Validate())
	})
}

func TestConfigString(t *testing.T) {
	cfg := DefaultConfig()
	str := cfg.String()

	assert.Contains(t, str, `"level": "info"`)
	assert.Contains(t, str, `"addr": "127.0.0.1:9464"`)
	assert.Contains(t, str, `"service_name": "puppeteer-mcp"`)
}
