package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	facetComputations metric.Int64Counter
	facetDuration     metric.Float64Histogram
	productResolution metric.Int64Histogram
	priceLookups      metric.Int64Counter
	cacheLookups      metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
	catalogEvents     metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				log.Info("shutting down meter provider")
				return provider.Shutdown(ctx)
			},
		})
	}

	log.Info("metrics initialized",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "storefront"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	if m.facetComputations, err = meter.Int64Counter("storefront_facet_computations_total"); err != nil {
		return nil, err
	}
	if m.facetDuration, err = meter.Float64Histogram("storefront_facet_duration_seconds", metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if m.productResolution, err = meter.Int64Histogram("storefront_resolved_products"); err != nil {
		return nil, err
	}
	if m.priceLookups, err = meter.Int64Counter("storefront_price_lookups_total"); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("storefront_facet_cache_lookups_total"); err != nil {
		return nil, err
	}
	if m.rateLimitDenied, err = meter.Int64Counter("storefront_rate_limit_denied_total"); err != nil {
		return nil, err
	}
	if m.catalogEvents, err = meter.Int64Counter("storefront_catalog_events_total"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordFacetComputation records one facet computation for a category.
func (m *Metrics) RecordFacetComputation(ctx context.Context, elapsed time.Duration, activeFilters int) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.Bool("filtered", activeFilters > 0))
	m.facetComputations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.facetDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))
}

// RecordResolvedProducts records the size of a resolved product set.
func (m *Metrics) RecordResolvedProducts(ctx context.Context, size int) {
	if m == nil {
		return
	}
	m.productResolution.Record(ctx, int64(size))
}

// RecordPriceLookup counts price calculations per strategy.
func (m *Metrics) RecordPriceLookup(ctx context.Context, calculator string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("calculator", strings.TrimSpace(calculator)))
	m.priceLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheLookup counts facet cache hits and misses.
func (m *Metrics) RecordCacheLookup(ctx context.Context, backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := FilterAttributes(
		attribute.String("backend", backend),
		attribute.String("result", result),
	)
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied counts rejected requests per endpoint.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("endpoint", strings.TrimSpace(endpoint)))
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCatalogEvent counts published and consumed catalog events.
func (m *Metrics) RecordCatalogEvent(ctx context.Context, eventType, direction string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("event_type", eventType),
		attribute.String("direction", direction),
	)
	m.catalogEvents.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"endpoint":    {},
	"method":      {},
	"route":       {},
	"status_code": {},
	"calculator":  {},
	"backend":     {},
	"result":      {},
	"filtered":    {},
	"event_type":  {},
	"direction":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
