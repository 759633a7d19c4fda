package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	// ListBaseProducts returns the active listable products of the given
	// categories, ordered by opts first and (position, id) after.
	ListBaseProducts(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID, opts ...option.QueryOption) ([]catalogdomain.Product, error)
	ListActiveVariants(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]catalogdomain.Product, error)
	ListFilterValues(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) ([]catalogdomain.ProductPropertyValue, error)
	ListManufacturers(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]catalogdomain.Manufacturer, error)
}
