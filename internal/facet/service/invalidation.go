package service

import (
	"context"

	"github.com/smallbiznis/storefront/internal/cache"
	"github.com/smallbiznis/storefront/internal/events"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type InvalidationParams struct {
	fx.In

	Subscriber events.Subscriber
	FacetCache cache.FacetCache
	Mappings   cache.CatalogMappingCache
	Log        *zap.Logger
}

// RegisterInvalidation drops cached facets and property mappings whenever
// product properties change.
func RegisterInvalidation(p InvalidationParams) {
	log := p.Log.Named("facet.invalidation")
	p.Subscriber.Subscribe(func(ctx context.Context, evt events.Event) error {
		switch evt.Type {
		case events.TypeProductPropertiesUpdated, events.TypeProductPropertyGroupsUpdated:
		default:
			return nil
		}

		p.Mappings.Purge()
		if err := p.FacetCache.Invalidate(ctx); err != nil {
			return err
		}
		log.Debug("facet cache invalidated",
			zap.String("event_type", evt.Type),
			zap.String("product_id", evt.ProductID),
		)
		return nil
	})
}
