package observability

import (
	"testing"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig(config.Config{Environment: "production", OTelSamplingRatio: 3})

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "grpc", cfg.OtelExporterProtocol)
	assert.Equal(t, 1.0, cfg.OtelSamplingRatio)
	assert.False(t, cfg.Debug())
}

func TestConfigDebug(t *testing.T) {
	assert.True(t, Config{Environment: "local"}.Debug())
	assert.True(t, Config{Environment: "production", LogLevel: "DEBUG"}.Debug())
	assert.False(t, Config{Environment: "staging", LogLevel: "info"}.Debug())
}
