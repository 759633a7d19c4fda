package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"go.uber.org/fx"
)

var hundred = decimal.NewFromInt(100)

type ResolverParams struct {
	fx.In

	Repository taxdomain.Repository
}

type resolver struct {
	repo taxdomain.Repository
}

func NewResolver(p ResolverParams) taxdomain.TaxResolver {
	return &resolver{repo: p.Repository}
}

func (r *resolver) ResolveForProduct(ctx context.Context, product, parent *catalogdomain.Product) (*taxdomain.Tax, error) {
	if product == nil {
		return nil, nil
	}
	owner := product
	if product.IsVariant() {
		if parent == nil {
			return nil, nil
		}
		owner = parent
	}
	if owner.TaxID == nil {
		return nil, nil
	}

	tax, err := r.repo.FindByID(ctx, *owner.TaxID)
	if err != nil {
		return nil, err
	}
	if tax == nil {
		return nil, fmt.Errorf("product %s references tax %s: %w", owner.ID, *owner.TaxID, taxdomain.ErrDanglingTax)
	}
	return tax, nil
}

// ComputeTaxExclusive returns the tax added on top of a net amount.
func ComputeTaxExclusive(net, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return net.Mul(rate).Div(hundred)
}

// ComputeTaxInclusive returns the tax portion contained in a gross amount.
func ComputeTaxInclusive(gross, rate decimal.Decimal) decimal.Decimal {
	if !rate.IsPositive() {
		return decimal.Zero
	}
	return gross.Mul(rate).Div(hundred.Add(rate))
}
