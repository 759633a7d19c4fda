package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type Service interface {
	ResolveProducts(ctx context.Context, filters FilterSet) ([]snowflake.ID, error)
	ListProducts(ctx context.Context, filters FilterSet, page pagination.Pagination) ([]catalogdomain.Product, pagination.PageInfo, error)
	PriceFacet(ctx context.Context, filters FilterSet) (*PriceFacet, error)
	ManufacturerFacet(ctx context.Context, filters FilterSet) (*ManufacturerFacet, error)
	ProductFacets(ctx context.Context, filters FilterSet) (*ProductFacets, error)
	// Facets computes every facet of a category, served from the facet
	// cache when possible. The bool reports a cache hit.
	Facets(ctx context.Context, filters FilterSet) (*Facets, bool, error)
	CalculateSteps(ctx context.Context, baseIDs []snowflake.ID, property *catalogdomain.Property, min, max float64) ([]NumberStep, error)
	TopCategoryOfCategory(ctx context.Context, categoryID string) (*catalogdomain.Category, error)
	TopCategoryOfProduct(ctx context.Context, productID string) (*catalogdomain.Category, error)
}
