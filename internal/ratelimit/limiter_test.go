package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryBucketRefills(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	b := NewMemoryBucket(clk)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := b.Allow(ctx, "k", 1, 2)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := b.Allow(ctx, "k", 1, 2)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, time.Second, res.RetryAfter)

	clk.Advance(1500 * time.Millisecond)
	res, err = b.Allow(ctx, "k", 1, 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	other, err := b.Allow(ctx, "other", 1, 2)
	require.NoError(t, err)
	assert.True(t, other.Allowed)
	assert.Equal(t, 1, other.Remaining)
}

func TestMemoryBucketRejectsBadInput(t *testing.T) {
	b := NewMemoryBucket(nil)
	_, err := b.Allow(context.Background(), "", 1, 1)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = b.Allow(context.Background(), "k", 0, 1)
	assert.ErrorIs(t, err, ErrInvalidRate)
}

func TestTokenBucketWithoutClient(t *testing.T) {
	var b *TokenBucket
	_, err := b.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestFacetLimiterDisabled(t *testing.T) {
	l := NewFacetLimiter(Params{Cfg: config.Config{}, Clock: clock.NewSystemClock(), Log: zap.NewNop()})
	assert.False(t, l.Enabled())
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow(context.Background(), "1.2.3.4").Allowed)
	}
}

func TestFacetLimiterPerClient(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	l := NewFacetLimiter(Params{
		Cfg:   config.Config{FacetRateLimit: 1, FacetRateLimitBurst: 1},
		Clock: clk,
		Log:   zap.NewNop(),
	})
	require.True(t, l.Enabled())
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, "a").Allowed)
	assert.False(t, l.Allow(ctx, "a").Allowed)
	assert.True(t, l.Allow(ctx, "b").Allowed)

	clk.Advance(time.Second)
	assert.True(t, l.Allow(ctx, "a").Allowed)
}

func TestNilLockerAlwaysGrants(t *testing.T) {
	var l *Locker
	token, ok, err := l.TryLock(context.Background(), "seed", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Release(context.Background(), "seed", token))
}

func TestNilLockerWithLockRunsFn(t *testing.T) {
	var l *Locker
	calls := 0
	acquired, err := l.WithLock(context.Background(), "seed", time.Minute, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	acquired, err = l.WithLock(context.Background(), "seed", time.Minute, func(context.Context) error {
		return boom
	})
	assert.True(t, acquired)
	assert.ErrorIs(t, err, boom)
}
