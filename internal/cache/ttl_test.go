package cache

import (
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/stretchr/testify/assert"
)

func TestTTLCacheExpiresEntries(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	c := NewTTLCache[string, int](WithClock(clk))

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	clk.Advance(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok = c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCachePurge(t *testing.T) {
	c := NewTTLCache[int, string]()
	c.Set(1, "x", time.Hour)
	c.Set(2, "y", time.Hour)
	c.Delete(1)
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}
