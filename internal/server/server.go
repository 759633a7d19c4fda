package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
	facetdomain "github.com/smallbiznis/storefront/internal/facet/domain"
	"github.com/smallbiznis/storefront/internal/observability"
	obsmiddleware "github.com/smallbiznis/storefront/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	obstracing "github.com/smallbiznis/storefront/internal/observability/tracing"
	pricedomain "github.com/smallbiznis/storefront/internal/price/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Named("http").Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	catalogSvc   catalogdomain.Service
	facetSvc     facetdomain.Service
	priceSvc     pricedomain.Service
	facetLimiter *ratelimit.FacetLimiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	CatalogSvc   catalogdomain.Service
	FacetSvc     facetdomain.Service
	PriceSvc     pricedomain.Service
	FacetLimiter *ratelimit.FacetLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		catalogSvc:   p.CatalogSvc,
		facetSvc:     p.FacetSvc,
		priceSvc:     p.PriceSvc,
		facetLimiter: p.FacetLimiter,
	}

	svc.registerStorefrontRoutes()
	svc.registerManageRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerStorefrontRoutes() {
	api := s.engine.Group("/api")

	categories := api.Group("/categories")
	categories.GET("/:id", s.GetCategory)
	categories.GET("/:id/top", s.GetTopCategory)
	categories.GET("/:id/products", s.ListCategoryProducts)
	categories.GET("/:id/facets", s.FacetRateLimit(), s.GetFacets)

	products := api.Group("/products")
	products.GET("/for-sale", s.ListForSale)
	products.GET("/:id", s.GetProduct)
	products.GET("/:id/top-category", s.GetProductTopCategory)
	products.GET("/:id/price", s.GetProductPrice)
}

func (s *Server) registerManageRoutes() {
	manage := s.engine.Group("/api/manage")

	manage.GET("/products/:id/properties", s.GetProductProperties)
	manage.PUT("/products/:id/properties", s.UpdateProductProperties)
	manage.PUT("/products/:id/property-groups", s.UpdateProductPropertyGroups)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
