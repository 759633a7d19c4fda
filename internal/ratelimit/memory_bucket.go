package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/smallbiznis/storefront/internal/cache"
	"github.com/smallbiznis/storefront/internal/clock"
)

type bucketState struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket is the in-process token bucket used when redis is not configured.
// Idle buckets expire the same way redis keys do.
type MemoryBucket struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets cache.Cache[string, bucketState]
}

func NewMemoryBucket(clk clock.Clock) *MemoryBucket {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &MemoryBucket{
		clock:   clk,
		buckets: cache.NewTTLCache[string, bucketState](cache.WithClock(clk)),
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, rate float64, burst int) (*Result, error) {
	if err := validate(key, rate, burst); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	state, ok := m.buckets.Get(key)
	if !ok {
		state = bucketState{tokens: float64(burst), ts: now}
	} else {
		delta := now.Sub(state.ts).Seconds()
		if delta < 0 {
			delta = 0
		}
		state.tokens = math.Min(float64(burst), state.tokens+delta*rate)
		state.ts = now
	}

	allowed := state.tokens >= 1
	if allowed {
		state.tokens--
	}
	m.buckets.Set(key, state, bucketTTL(rate, burst))
	return newResult(allowed, state.tokens, rate, burst), nil
}
