package db

import (
	"context"
	"fmt"

	"github.com/smallbiznis/storefront/internal/config"
	obslogger "github.com/smallbiznis/storefront/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(FromAppConfig),
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Cfg    Config
	AppCfg config.Config
	Log    *zap.Logger
}

// New opens the catalog database and closes it with the application.
func New(p Params) (*gorm.DB, error) {
	conn, err := Open(p.Cfg, OpenOptions{
		Logger:        obslogger.NewGormLogger(obslogger.DefaultGormLoggerConfig(!p.AppCfg.IsProduction()), p.Log),
		Tracing:       true,
		Metrics:       true,
		MetricsDBName: p.Cfg.Name,
	})
	if err != nil {
		return nil, err
	}

	p.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	p.Log.Named("db").Info("database connected",
		zap.String("type", p.Cfg.Type),
		zap.String("name", p.Cfg.Name),
	)
	return conn, nil
}

type OpenOptions struct {
	Logger        *obslogger.GormLogger
	Tracing       bool
	Metrics       bool
	MetricsDBName string
}

// Open builds a gorm handle with pool settings and optional plugins.
func Open(cfg Config, opts OpenOptions) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{}
	if opts.Logger != nil {
		gormCfg.Logger = opts.Logger
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}

	if opts.Tracing {
		if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithoutQueryVariables())); err != nil {
			return nil, fmt.Errorf("register tracing plugin: %w", err)
		}
	}
	if opts.Metrics {
		name := opts.MetricsDBName
		if name == "" {
			name = cfg.Name
		}
		if err := conn.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          name,
			RefreshInterval: 15,
			StartServer:     false,
		})); err != nil {
			return nil, fmt.Errorf("register metrics plugin: %w", err)
		}
	}

	return conn, nil
}
