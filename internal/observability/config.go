package observability

import (
	"strings"

	"github.com/smallbiznis/storefront/internal/config"
)

// Config is the slice of application config the telemetry stack reads.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	ratio := cfg.OTelSamplingRatio
	switch {
	case ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}

	return Config{
		ServiceName:          defaultString(cfg.AppName, "storefront"),
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             defaultString(strings.ToLower(cfg.LogLevel), "info"),
		LogFormat:            defaultString(strings.ToLower(cfg.LogFormat), "json"),
		OtelEnabled:          cfg.OTelEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: defaultString(strings.ToLower(cfg.OTLPProtocol), "grpc"),
		OtelSamplingRatio:    ratio,
	}
}

// Debug is true for debug logging or any development-like environment.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

func defaultString(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
