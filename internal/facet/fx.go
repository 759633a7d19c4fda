package facet

import (
	"github.com/smallbiznis/storefront/internal/facet/repository"
	"github.com/smallbiznis/storefront/internal/facet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("facet.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Invoke(service.RegisterInvalidation),
)
