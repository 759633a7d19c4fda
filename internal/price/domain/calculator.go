package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
)

// Calculator prices one product. Gross and net strategies differ in whether
// the stored prices already contain tax.
type Calculator interface {
	Name() string
	GetStandardPrice(withProperties bool) decimal.Decimal
	GetPrice(withProperties bool) decimal.Decimal
	GetForSalePrice() decimal.Decimal
	IsForSale() bool
	GetPriceGross(withProperties bool) decimal.Decimal
	GetPriceNet(withProperties bool) decimal.Decimal
	GetTaxRate() decimal.Decimal
	GetTax(withProperties bool) decimal.Decimal
	CalculatePrice(price decimal.Decimal) decimal.Decimal
	PricesIncludeTax() bool
	GetPriceWithUnit() string
}

// Subject is everything a calculator needs, loaded up front so the
// strategies stay free of I/O.
type Subject struct {
	Product *catalogdomain.Product
	// Parent is set for variants.
	Parent *catalogdomain.Product
	// DefaultVariant is set for products with variants that name one.
	DefaultVariant *catalogdomain.Product

	TaxRate decimal.Decimal
	// PropertiesPrice is the sum of option prices of a configurable
	// product's default select values.
	PropertiesPrice decimal.Decimal
	// DefaultValues maps property id to the product's default value.
	DefaultValues map[snowflake.ID]string

	Settings config.ShopSettings
}
