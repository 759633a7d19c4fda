package service

import (
	"context"
	"testing"

	"github.com/smallbiznis/storefront/internal/catalog/catalogtest"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/storefront/internal/catalog/repository"
	"github.com/smallbiznis/storefront/internal/config"
	pricedomain "github.com/smallbiznis/storefront/internal/price/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	taxrepository "github.com/smallbiznis/storefront/internal/tax/repository"
	taxservice "github.com/smallbiznis/storefront/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T, settings config.ShopSettings) (pricedomain.Service, *catalogtest.Builder) {
	t.Helper()
	db := catalogtest.NewDB(t)
	b := catalogtest.NewBuilder(t, db)

	svc := New(Params{
		DB:          db,
		Log:         zap.NewNop(),
		CatalogRepo: catalogrepository.Provide(),
		Taxes:       taxservice.NewResolver(taxservice.ResolverParams{Repository: taxrepository.NewRepository(db)}),
		Settings:    config.NewStaticShopSettings(settings),
	})
	return svc, b
}

func TestGetUsesShopDefaultAndProductOverride(t *testing.T) {
	svc, b := newTestService(t, config.DefaultShopSettings())
	vat := b.Tax("19")
	plain := b.Product(catalogtest.ProductSpec{Name: "Lamp", Price: "119", Tax: &vat})
	override := b.Product(catalogtest.ProductSpec{Name: "Desk", Price: "100", Tax: &vat, PriceCalculator: "net"})

	resp, err := svc.Get(context.Background(), plain.ID.String(), true)
	require.NoError(t, err)
	assert.Equal(t, "gross", resp.Calculator)
	assert.True(t, resp.PricesIncludeTax)
	assert.Equal(t, "119.00", resp.PriceGross.StringFixed(2))
	assert.Equal(t, "100.00", resp.PriceNet.StringFixed(2))
	assert.Equal(t, "19.00", resp.Tax.StringFixed(2))

	resp, err = svc.Get(context.Background(), override.ID.String(), true)
	require.NoError(t, err)
	assert.Equal(t, "net", resp.Calculator)
	assert.False(t, resp.PricesIncludeTax)
	assert.Equal(t, "119.00", resp.PriceGross.StringFixed(2))
	assert.Equal(t, "100.00", resp.Price.StringFixed(2))
}

func TestGetVariantFallsBackToParentPriceAndTax(t *testing.T) {
	for _, name := range []string{config.PriceCalculatorGross, config.PriceCalculatorNet} {
		t.Run(name, func(t *testing.T) {
			settings := config.DefaultShopSettings()
			settings.PriceCalculator = name
			svc, b := newTestService(t, settings)

			vat := b.Tax("7")
			parent := b.Product(catalogtest.ProductSpec{Name: "Shirt", Price: "30", Tax: &vat, SubType: catalogdomain.SubTypeProductWithVariants})
			variant := b.Variant(parent, catalogtest.ProductSpec{Name: "Shirt L", Price: "1"})

			resp, err := svc.Get(context.Background(), variant.ID.String(), false)
			require.NoError(t, err)
			assert.Equal(t, name, resp.Calculator)
			assert.Equal(t, "30.00", resp.StandardPrice.StringFixed(2))
			assert.Equal(t, "30.00", resp.Price.StringFixed(2))
			assert.Equal(t, "7", resp.TaxRate.String())
		})
	}
}

func TestGetConfigurableAddsDefaultOptionPrices(t *testing.T) {
	settings := config.DefaultShopSettings()
	settings.PriceCalculator = config.PriceCalculatorNet
	svc, b := newTestService(t, settings)

	product := b.Product(catalogtest.ProductSpec{Name: "Bike", Price: "500", SubType: catalogdomain.SubTypeConfigurable})
	frame := b.Property(catalogdomain.Property{Name: "Frame", Configurable: true})
	carbon := b.Option(frame, "Carbon", 1, "250")
	b.Option(frame, "Steel", 2, "0")
	lights := b.Property(catalogdomain.Property{Name: "Lights", Configurable: true})
	led := b.Option(lights, "LED", 1, "25.50")
	b.Value(product, frame, carbon.ID.String(), catalogdomain.ValueTypeDefault)
	b.Value(product, lights, led.ID.String(), catalogdomain.ValueTypeDefault)

	resp, err := svc.Get(context.Background(), product.ID.String(), true)
	require.NoError(t, err)
	assert.Equal(t, "775.50", resp.Price.StringFixed(2))

	resp, err = svc.Get(context.Background(), product.ID.String(), false)
	require.NoError(t, err)
	assert.Equal(t, "500.00", resp.Price.StringFixed(2))
}

func TestGetDanglingTaxIsAnError(t *testing.T) {
	svc, b := newTestService(t, config.DefaultShopSettings())
	vat := b.Tax("19")
	product := b.Product(catalogtest.ProductSpec{Name: "Lamp", Price: "10", Tax: &vat})
	require.NoError(t, b.DB.Delete(&taxdomain.Tax{}, "id = ?", vat.ID).Error)

	_, err := svc.Get(context.Background(), product.ID.String(), true)
	assert.ErrorIs(t, err, taxdomain.ErrDanglingTax)
}

func TestGetRejectsBadInput(t *testing.T) {
	svc, b := newTestService(t, config.DefaultShopSettings())

	_, err := svc.Get(context.Background(), "nope", true)
	assert.ErrorIs(t, err, pricedomain.ErrInvalidID)

	_, err = svc.Get(context.Background(), b.Node.Generate().String(), true)
	assert.ErrorIs(t, err, pricedomain.ErrNotFound)

	product := b.Product(catalogtest.ProductSpec{Name: "Odd", Price: "1", PriceCalculator: "magic"})
	_, err = svc.Get(context.Background(), product.ID.String(), true)
	assert.ErrorIs(t, err, pricedomain.ErrUnknownCalculator)
}

func TestGetRoundedPricesStayConsistent(t *testing.T) {
	for _, tc := range []struct {
		calculator string
		price      string
		gross      string
		net        string
	}{
		{config.PriceCalculatorGross, "1.05", "1.05", "0.87"},
		{config.PriceCalculatorNet, "0.88", "1.06", "0.88"},
	} {
		t.Run(tc.calculator, func(t *testing.T) {
			settings := config.DefaultShopSettings()
			settings.PriceCalculator = tc.calculator
			svc, b := newTestService(t, settings)
			vat := b.Tax("20")
			product := b.Product(catalogtest.ProductSpec{Name: "Pin", Price: tc.price, Tax: &vat})

			resp, err := svc.Get(context.Background(), product.ID.String(), false)
			require.NoError(t, err)
			assert.Equal(t, "0.18", resp.Tax.StringFixed(2))
			assert.Equal(t, tc.gross, resp.PriceGross.StringFixed(2))
			assert.Equal(t, tc.net, resp.PriceNet.StringFixed(2))
			assert.True(t, resp.PriceGross.Sub(resp.Tax).Equal(resp.PriceNet))
		})
	}
}
