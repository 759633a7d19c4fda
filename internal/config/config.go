package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewShopSettingsHolder),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	LogLevel  string
	LogFormat string

	OTLPEndpoint      string
	OTLPProtocol      string
	OTelEnabled       bool
	OTelSamplingRatio float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
	InstanceID   string

	FacetCacheTTL       time.Duration
	FacetRateLimit      float64
	FacetRateLimitBurst int

	ShopSettingsPath string
	SeedDemoCatalog  bool

	SnowflakeNodeID int64
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development"))
	otlpProtocol := getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))

	return Config{
		AppName:             getenv("APP_SERVICE", "storefront"),
		AppVersion:          getenv("SERVICE_VERSION", getenv("APP_VERSION", "0.1.0")),
		Environment:         environment,
		HTTPAddr:            getenv("HTTP_ADDR", ":8080"),
		LogLevel:            strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getenv("LOG_FORMAT", "json")),
		OTLPEndpoint:        getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol:        strings.ToLower(otlpProtocol),
		OTelEnabled:         getenvBool("OTEL_ENABLED", strings.EqualFold(environment, "production")),
		OTelSamplingRatio:   getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		DBType:              getenv("DATABASE_TYPE", "postgres"),
		DBHost:              getenv("DATABASE_HOST", "localhost"),
		DBPort:              getenv("DATABASE_PORT", "5432"),
		DBName:              getenv("DATABASE_NAME", "storefront"),
		DBUser:              getenv("DATABASE_USER", "postgres"),
		DBPassword:          getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:           getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:       getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:       getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime:   getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime:   getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		RedisAddr:           strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		KafkaBrokers:        splitList(getenv("KAFKA_BROKERS", "")),
		KafkaTopic:          getenv("KAFKA_TOPIC", "catalog.events"),
		KafkaGroupID:        getenv("KAFKA_GROUP_ID", "storefront-facet-cache"),
		InstanceID:          getenv("INSTANCE_ID", ""),
		FacetCacheTTL:       getenvDuration("FACET_CACHE_TTL", 5*time.Minute),
		FacetRateLimit:      getenvFloat("FACET_RATE_LIMIT", 20),
		FacetRateLimitBurst: getenvInt("FACET_RATE_LIMIT_BURST", 40),
		ShopSettingsPath:    getenv("SHOP_SETTINGS_PATH", ""),
		SeedDemoCatalog:     getenvBool("SEED_DEMO_CATALOG", false),
		SnowflakeNodeID:     getenvInt64("SNOWFLAKE_NODE_ID", 1),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
