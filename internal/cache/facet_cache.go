package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	redis "github.com/redis/go-redis/v9"
)

const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
	BackendNoop   = "noop"

	facetVersionKey = "storefront:facets:version"
)

// FacetCache stores computed facet payloads keyed by category and filter state.
// Invalidate drops every entry at once.
type FacetCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context) error
	Backend() string
}

// FacetKey derives a compact key from a category id and a canonical filter string.
func FacetKey(categoryID, canonicalFilters string) string {
	return fmt.Sprintf("%s:%016x", categoryID, xxhash.Sum64String(canonicalFilters))
}

func encode(value any) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return snappy.Encode(nil, raw), nil
}

func decode(data []byte, dst any) error {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return fmt.Errorf("decompress facet payload: %w", err)
	}
	return json.Unmarshal(raw, dst)
}

type redisFacetCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFacetCache(client *redis.Client, ttl time.Duration) FacetCache {
	return &redisFacetCache{client: client, ttl: ttl}
}

func (c *redisFacetCache) Backend() string { return BackendRedis }

func (c *redisFacetCache) version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, facetVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *redisFacetCache) key(ctx context.Context, key string) (string, error) {
	v, err := c.version(ctx)
	if err != nil {
		return "", err
	}
	return "storefront:facets:v" + strconv.FormatInt(v, 10) + ":" + key, nil
}

func (c *redisFacetCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	k, err := c.key(ctx, key)
	if err != nil {
		return false, err
	}
	data, err := c.client.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := decode(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisFacetCache) Set(ctx context.Context, key string, value any) error {
	k, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, k, data, c.ttl).Err()
}

// Invalidate bumps the version prefix; stale entries age out through their TTL.
func (c *redisFacetCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, facetVersionKey).Err()
}

type memoryFacetCache struct {
	items Cache[string, []byte]
	ttl   time.Duration
}

func NewMemoryFacetCache(ttl time.Duration, opts ...Option) FacetCache {
	return &memoryFacetCache{
		items: NewTTLCache[string, []byte](opts...),
		ttl:   ttl,
	}
}

func (c *memoryFacetCache) Backend() string { return BackendMemory }

func (c *memoryFacetCache) Get(_ context.Context, key string, dst any) (bool, error) {
	data, ok := c.items.Get(key)
	if !ok {
		return false, nil
	}
	if err := decode(data, dst); err != nil {
		c.items.Delete(key)
		return false, err
	}
	return true, nil
}

func (c *memoryFacetCache) Set(_ context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	c.items.Set(key, data, c.ttl)
	return nil
}

func (c *memoryFacetCache) Invalidate(context.Context) error {
	c.items.Purge()
	return nil
}

type noopFacetCache struct{}

func NewNoopFacetCache() FacetCache { return noopFacetCache{} }

func (noopFacetCache) Backend() string                               { return BackendNoop }
func (noopFacetCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (noopFacetCache) Set(context.Context, string, any) error         { return nil }
func (noopFacetCache) Invalidate(context.Context) error               { return nil }
