package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyFacetClient = "storefront:ratelimit:facets:%s"

type bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*Result, error)
}

// FacetLimiter throttles facet computation per client.
type FacetLimiter struct {
	bucket  bucket
	rate    float64
	burst   int
	log     *zap.Logger
	metrics *obsmetrics.Metrics
}

type Params struct {
	fx.In

	Cfg     config.Config
	Redis   *redis.Client `optional:"true"`
	Clock   clock.Clock
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// NewFacetLimiter returns a disabled limiter when FacetRateLimit is not positive.
func NewFacetLimiter(p Params) *FacetLimiter {
	log := p.Log.Named("ratelimit")
	if p.Cfg.FacetRateLimit <= 0 {
		log.Info("facet rate limiting disabled")
		return &FacetLimiter{log: log}
	}

	burst := p.Cfg.FacetRateLimitBurst
	if burst <= 0 {
		burst = int(p.Cfg.FacetRateLimit)
		if burst < 1 {
			burst = 1
		}
	}

	l := &FacetLimiter{
		rate:    p.Cfg.FacetRateLimit,
		burst:   burst,
		log:     log,
		metrics: p.Metrics,
	}
	if p.Redis != nil {
		l.bucket = NewTokenBucket(p.Redis)
	} else {
		l.bucket = NewMemoryBucket(p.Clock)
	}
	return l
}

func (l *FacetLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow takes one token for client. Backend errors fail open.
func (l *FacetLimiter) Allow(ctx context.Context, client string) *Result {
	if !l.Enabled() {
		return &Result{Allowed: true}
	}

	client = strings.TrimSpace(client)
	if client == "" {
		client = "anonymous"
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyFacetClient, client), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.Error(err))
		return &Result{Allowed: true, Limit: l.burst}
	}
	if !res.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, "facets")
	}
	return res
}
