package cache

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type facetPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryFacetCacheRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryFacetCache(time.Minute)
	key := FacetKey("42", "filter[1]=red")

	var got facetPayload
	hit, err := c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, key, facetPayload{Name: "color", Count: 3}))
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, facetPayload{Name: "color", Count: 3}, got)

	require.NoError(t, c.Invalidate(ctx))
	hit, err = c.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryFacetCacheHonoursTTL(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Now())
	c := NewMemoryFacetCache(time.Second, WithClock(clk))

	require.NoError(t, c.Set(ctx, "k", facetPayload{Name: "size"}))
	clk.Advance(2 * time.Second)

	var got facetPayload
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestFacetKeyDependsOnFilters(t *testing.T) {
	a := FacetKey("1", "filter[2]=3")
	b := FacetKey("1", "filter[2]=4")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, FacetKey("1", "filter[2]=3"))
}

func TestNoopFacetCacheNeverHits(t *testing.T) {
	c := NewNoopFacetCache()
	require.NoError(t, c.Set(context.Background(), "k", 1))

	var v int
	hit, err := c.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, BackendNoop, c.Backend())
}
