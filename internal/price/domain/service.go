package domain

import (
	"context"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
)

type Service interface {
	Get(ctx context.Context, productID string, withProperties bool) (*PriceResponse, error)
	CalculatorFor(ctx context.Context, product *catalogdomain.Product) (Calculator, error)
}

type PriceResponse struct {
	ProductID        string          `json:"product_id"`
	Calculator       string          `json:"calculator"`
	Currency         string          `json:"currency"`
	StandardPrice    decimal.Decimal `json:"standard_price"`
	Price            decimal.Decimal `json:"price"`
	ForSale          bool            `json:"for_sale"`
	ForSalePrice     decimal.Decimal `json:"for_sale_price"`
	PriceGross       decimal.Decimal `json:"price_gross"`
	PriceNet         decimal.Decimal `json:"price_net"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	Tax              decimal.Decimal `json:"tax"`
	PricesIncludeTax bool            `json:"prices_include_tax"`
	PriceWithUnit    string          `json:"price_with_unit"`
}
