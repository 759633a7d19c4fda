package cache

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when no redis address is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Named("cache").Info("redis not configured, using in-process caches")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

// NewFacetCache picks redis when a client exists, memory otherwise. A zero TTL disables caching.
func NewFacetCache(cfg config.Config, client *redis.Client) FacetCache {
	switch {
	case cfg.FacetCacheTTL <= 0:
		return NewNoopFacetCache()
	case client != nil:
		return NewRedisFacetCache(client, cfg.FacetCacheTTL)
	default:
		return NewMemoryFacetCache(cfg.FacetCacheTTL)
	}
}
