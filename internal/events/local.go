package events

import (
	"context"
	"sync"

	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/zap"
)

// LocalBus delivers events synchronously to in-process handlers.
type LocalBus struct {
	mu       sync.RWMutex
	handlers []Handler
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
}

func NewLocalBus(log *zap.Logger, metrics *obsmetrics.Metrics) *LocalBus {
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalBus{log: log.Named("events.local"), metrics: metrics}
}

func (b *LocalBus) Subscribe(h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

func (b *LocalBus) Publish(ctx context.Context, evt Event) error {
	b.metrics.RecordCatalogEvent(ctx, evt.Type, "published")
	b.dispatch(ctx, evt)
	return nil
}

func (b *LocalBus) dispatch(ctx context.Context, evt Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers...)
	b.mu.RUnlock()

	b.metrics.RecordCatalogEvent(ctx, evt.Type, "consumed")
	for _, h := range handlers {
		if err := h(ctx, evt); err != nil {
			b.log.Warn("event handler failed",
				zap.String("event_id", evt.ID),
				zap.String("event_type", evt.Type),
				zap.Error(err),
			)
		}
	}
}
