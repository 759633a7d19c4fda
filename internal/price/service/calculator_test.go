package service

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
	pricedomain "github.com/smallbiznis/storefront/internal/price/domain"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strategies(subject pricedomain.Subject) []pricedomain.Calculator {
	return []pricedomain.Calculator{NewGross(subject), NewNet(subject)}
}

func TestGrossPriceMinusTaxIsNet(t *testing.T) {
	calc := NewGross(pricedomain.Subject{
		Product:  &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeStandard, Price: dec("10")},
		TaxRate:  dec("19"),
		Settings: config.DefaultShopSettings(),
	})

	assert.True(t, calc.PricesIncludeTax())
	assert.True(t, calc.GetPrice(true).Equal(dec("10")))
	assert.True(t, calc.GetPriceGross(true).Sub(calc.GetTax(true)).Equal(calc.GetPriceNet(true)))
	assert.Equal(t, "1.60", calc.GetTax(true).StringFixed(2))
	assert.Equal(t, "8.40", calc.GetPriceNet(true).StringFixed(2))
}

func TestNetPriceIsStoredPrice(t *testing.T) {
	calc := NewNet(pricedomain.Subject{
		Product:  &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeStandard, Price: dec("100")},
		TaxRate:  dec("19"),
		Settings: config.DefaultShopSettings(),
	})

	assert.False(t, calc.PricesIncludeTax())
	assert.True(t, calc.GetPriceNet(false).Equal(dec("100")))
	assert.True(t, calc.GetPrice(false).Equal(dec("100")))
	assert.True(t, calc.GetTax(false).Equal(dec("19")))
	assert.True(t, calc.GetPriceGross(false).Equal(dec("119")))
}

func TestVariantWithoutActivePriceUsesParent(t *testing.T) {
	parentID := snowflake.ID(1)
	parent := &catalogdomain.Product{
		ID:           parentID,
		SubType:      catalogdomain.SubTypeProductWithVariants,
		Price:        dec("50"),
		ForSalePrice: dec("40"),
	}
	variant := &catalogdomain.Product{
		ID:           2,
		ParentID:     &parentID,
		SubType:      catalogdomain.SubTypeVariant,
		Price:        dec("99"),
		ForSalePrice: dec("10"),
		ForSale:      true,
	}

	for _, calc := range strategies(pricedomain.Subject{Product: variant, Parent: parent, Settings: config.DefaultShopSettings()}) {
		t.Run(calc.Name(), func(t *testing.T) {
			assert.True(t, calc.GetStandardPrice(false).Equal(dec("50")))
			assert.True(t, calc.GetForSalePrice().Equal(dec("40")))
			assert.False(t, calc.IsForSale())
			assert.True(t, calc.GetPrice(false).Equal(dec("50")))
		})
	}

	variant.ActivePrice = true
	variant.ActiveForSalePrice = true
	for _, calc := range strategies(pricedomain.Subject{Product: variant, Parent: parent, Settings: config.DefaultShopSettings()}) {
		t.Run(calc.Name()+"/active", func(t *testing.T) {
			assert.True(t, calc.GetStandardPrice(false).Equal(dec("99")))
			assert.True(t, calc.IsForSale())
			assert.True(t, calc.GetPrice(false).Equal(dec("10")))
		})
	}
}

func TestProductWithVariantsResolvesDefaultVariant(t *testing.T) {
	productID := snowflake.ID(1)
	product := &catalogdomain.Product{ID: productID, SubType: catalogdomain.SubTypeProductWithVariants, Price: dec("30")}
	inherit := &catalogdomain.Product{ID: 2, ParentID: &productID, SubType: catalogdomain.SubTypeVariant, Price: dec("5")}
	own := &catalogdomain.Product{ID: 3, ParentID: &productID, SubType: catalogdomain.SubTypeVariant, Price: dec("25"), ActivePrice: true}

	calc := NewNet(pricedomain.Subject{Product: product, DefaultVariant: inherit, Settings: config.DefaultShopSettings()})
	assert.True(t, calc.GetStandardPrice(false).Equal(dec("30")))

	calc = NewNet(pricedomain.Subject{Product: product, DefaultVariant: own, Settings: config.DefaultShopSettings()})
	assert.True(t, calc.GetStandardPrice(false).Equal(dec("25")))
}

func TestConfigurableAddsPropertiesPrice(t *testing.T) {
	subject := pricedomain.Subject{
		Product:         &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeConfigurable, Price: dec("100")},
		PropertiesPrice: dec("12.5"),
		Settings:        config.DefaultShopSettings(),
	}
	for _, calc := range strategies(subject) {
		t.Run(calc.Name(), func(t *testing.T) {
			assert.True(t, calc.GetStandardPrice(true).Equal(dec("112.5")))
			assert.True(t, calc.GetStandardPrice(false).Equal(dec("100")))
			assert.True(t, calc.GetPrice(true).Equal(dec("112.5")))
			assert.True(t, calc.GetPrice(false).Equal(dec("100")))
		})
	}

	subject.Product = &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeStandard, Price: dec("100")}
	assert.True(t, NewNet(subject).GetPrice(true).Equal(dec("100")))
}

func TestForSalePriceIsRealPrice(t *testing.T) {
	subject := pricedomain.Subject{
		Product: &catalogdomain.Product{
			ID:           1,
			SubType:      catalogdomain.SubTypeStandard,
			Price:        dec("20"),
			ForSale:      true,
			ForSalePrice: dec("15"),
		},
		Settings: config.DefaultShopSettings(),
	}
	for _, calc := range strategies(subject) {
		assert.True(t, calc.GetPrice(true).Equal(dec("15")), calc.Name())
		assert.True(t, calc.GetStandardPrice(true).Equal(dec("20")), calc.Name())
	}
}

func TestGetPriceWithUnit(t *testing.T) {
	settings := config.DefaultShopSettings()
	settings.CurrencySymbol = "$"
	calc := NewGross(pricedomain.Subject{
		Product:  &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeStandard, Price: dec("4.5"), PriceUnit: "kg"},
		Settings: settings,
	})
	assert.Equal(t, "$4.50 / kg", calc.GetPriceWithUnit())

	calc = NewGross(pricedomain.Subject{
		Product:  &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeStandard, Price: dec("4.5")},
		Settings: settings,
	})
	assert.Equal(t, "$4.50", calc.GetPriceWithUnit())
}

func TestCalculatePriceUsesExpression(t *testing.T) {
	expr := "property(7) * property(8) / 10000"
	subject := pricedomain.Subject{
		Product:       &catalogdomain.Product{ID: 1, SubType: catalogdomain.SubTypeStandard, PriceCalculation: &expr},
		DefaultValues: map[snowflake.ID]string{7: "200", 8: "150"},
		Settings:      config.DefaultShopSettings(),
	}
	assert.True(t, NewNet(subject).CalculatePrice(dec("10")).Equal(dec("30")))

	subject.DefaultValues = map[snowflake.ID]string{7: "200"}
	assert.True(t, NewNet(subject).CalculatePrice(dec("10")).Equal(dec("10")))

	subject.Product.PriceCalculation = nil
	assert.True(t, NewGross(subject).CalculatePrice(dec("10")).Equal(dec("10")))
}
