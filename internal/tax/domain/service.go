package domain

import (
	"context"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
)

// TaxResolver returns the tax that applies to a product. A variant uses its
// parent's tax; parent may be nil for non-variants.
type TaxResolver interface {
	ResolveForProduct(ctx context.Context, product, parent *catalogdomain.Product) (*Tax, error)
}
