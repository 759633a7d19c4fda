package events

import (
	"context"

	"github.com/smallbiznis/storefront/internal/config"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("events",
	fx.Provide(NewBus),
	fx.Provide(func(b Bus) Publisher { return b }),
	fx.Provide(func(b Bus) Subscriber { return b }),
)

type Params struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     config.Config
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// NewBus uses kafka when brokers are configured and an in-process bus otherwise.
func NewBus(p Params) (Bus, error) {
	if len(p.Cfg.KafkaBrokers) == 0 {
		p.Log.Named("events").Info("kafka not configured, using in-process event bus")
		return NewLocalBus(p.Log, p.Metrics), nil
	}

	bus, err := NewKafkaBus(KafkaConfig{
		Brokers:    p.Cfg.KafkaBrokers,
		Topic:      p.Cfg.KafkaTopic,
		GroupID:    p.Cfg.KafkaGroupID,
		InstanceID: p.Cfg.InstanceID,
	}, p.Log, p.Metrics)
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			bus.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			return bus.Stop()
		},
	})
	return bus, nil
}
