package cache

import (
	"time"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
)

const defaultMappingTTL = 10 * time.Minute

const mappingKey = "all"

// CatalogMappingCache keeps the property and option lookups facet computation needs on every request.
type CatalogMappingCache interface {
	GetProperties() (map[string]catalogdomain.Property, bool)
	SetProperties(props map[string]catalogdomain.Property)
	GetOptions() (map[string]catalogdomain.PropertyOption, bool)
	SetOptions(options map[string]catalogdomain.PropertyOption)
	Purge()
}

type catalogMappingCache struct {
	properties Cache[string, map[string]catalogdomain.Property]
	options    Cache[string, map[string]catalogdomain.PropertyOption]
	ttl        time.Duration
}

func NewCatalogMappingCache() CatalogMappingCache {
	return NewCatalogMappingCacheWithTTL(defaultMappingTTL)
}

func NewCatalogMappingCacheWithTTL(ttl time.Duration, opts ...Option) CatalogMappingCache {
	return &catalogMappingCache{
		properties: NewTTLCache[string, map[string]catalogdomain.Property](opts...),
		options:    NewTTLCache[string, map[string]catalogdomain.PropertyOption](opts...),
		ttl:        ttl,
	}
}

func (c *catalogMappingCache) GetProperties() (map[string]catalogdomain.Property, bool) {
	return c.properties.Get(mappingKey)
}

func (c *catalogMappingCache) SetProperties(props map[string]catalogdomain.Property) {
	if props == nil {
		return
	}
	c.properties.Set(mappingKey, props, c.ttl)
}

func (c *catalogMappingCache) GetOptions() (map[string]catalogdomain.PropertyOption, bool) {
	return c.options.Get(mappingKey)
}

func (c *catalogMappingCache) SetOptions(options map[string]catalogdomain.PropertyOption) {
	if options == nil {
		return
	}
	c.options.Set(mappingKey, options, c.ttl)
}

func (c *catalogMappingCache) Purge() {
	c.properties.Purge()
	c.options.Purge()
}
