package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	pricedomain "github.com/smallbiznis/storefront/internal/price/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	CatalogRepo catalogdomain.Repository
	Taxes       taxdomain.TaxResolver
	Settings    *config.ShopSettingsHolder
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	catalogRepo catalogdomain.Repository
	taxes       taxdomain.TaxResolver
	settings    *config.ShopSettingsHolder
	metrics     *obsmetrics.Metrics
}

func New(p Params) pricedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("price.service"),
		catalogRepo: p.CatalogRepo,
		taxes:       p.Taxes,
		settings:    p.Settings,
		metrics:     p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, productID string, withProperties bool) (*pricedomain.PriceResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(productID))
	if err != nil || id <= 0 {
		return nil, pricedomain.ErrInvalidID
	}

	product, err := s.catalogRepo.FindProductByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pricedomain.ErrNotFound
	}

	calc, err := s.CalculatorFor(ctx, product)
	if err != nil {
		return nil, err
	}

	places := s.settings.Get().DecimalPlaces

	// Round the stored side and the tax, then derive the other side so that
	// gross - tax == net holds on the rounded values.
	tax := calc.GetTax(withProperties).Round(places)
	var gross, net decimal.Decimal
	if calc.PricesIncludeTax() {
		gross = calc.GetPriceGross(withProperties).Round(places)
		net = gross.Sub(tax)
	} else {
		net = calc.GetPriceNet(withProperties).Round(places)
		gross = net.Add(tax)
	}

	return &pricedomain.PriceResponse{
		ProductID:        product.ID.String(),
		Calculator:       calc.Name(),
		Currency:         s.settings.Get().Currency,
		StandardPrice:    calc.GetStandardPrice(withProperties).Round(places),
		Price:            calc.GetPrice(withProperties).Round(places),
		ForSale:          calc.IsForSale(),
		ForSalePrice:     calc.GetForSalePrice().Round(places),
		PriceGross:       gross,
		PriceNet:         net,
		TaxRate:          calc.GetTaxRate(),
		Tax:              tax,
		PricesIncludeTax: calc.PricesIncludeTax(),
		PriceWithUnit:    calc.GetPriceWithUnit(),
	}, nil
}

// CalculatorFor loads the related rows of product and picks its strategy:
// the product's own override, else the shop default.
func (s *Service) CalculatorFor(ctx context.Context, product *catalogdomain.Product) (pricedomain.Calculator, error) {
	settings := s.settings.Get()
	subject := pricedomain.Subject{
		Product:  product,
		Settings: settings,
	}

	if product.IsVariant() && product.ParentID != nil {
		parent, err := s.catalogRepo.FindProductByID(ctx, s.db, *product.ParentID)
		if err != nil {
			return nil, err
		}
		subject.Parent = parent
	}
	if product.IsProductWithVariants() && product.DefaultVariantID != nil {
		variant, err := s.catalogRepo.FindProductByID(ctx, s.db, *product.DefaultVariantID)
		if err != nil {
			return nil, err
		}
		if variant != nil && variant.Active {
			subject.DefaultVariant = variant
		}
	}

	tax, err := s.taxes.ResolveForProduct(ctx, product, subject.Parent)
	if err != nil {
		return nil, err
	}
	subject.TaxRate = decimal.Zero
	if tax != nil {
		subject.TaxRate = tax.Rate
	}

	if err := s.loadDefaultValues(ctx, &subject); err != nil {
		return nil, err
	}

	name := settings.PriceCalculator
	if product.PriceCalculator != nil && strings.TrimSpace(*product.PriceCalculator) != "" {
		name = strings.ToLower(strings.TrimSpace(*product.PriceCalculator))
	}

	var calc pricedomain.Calculator
	switch name {
	case config.PriceCalculatorGross:
		calc = NewGross(subject)
	case config.PriceCalculatorNet:
		calc = NewNet(subject)
	default:
		s.log.Warn("unknown price calculator",
			zap.String("product_id", product.ID.String()),
			zap.String("calculator", name),
		)
		return nil, pricedomain.ErrUnknownCalculator
	}

	s.metrics.RecordPriceLookup(ctx, calc.Name())
	return calc, nil
}

// loadDefaultValues fills the default values used by price expressions and,
// for configurable products, the price of the default options.
func (s *Service) loadDefaultValues(ctx context.Context, subject *pricedomain.Subject) error {
	values, err := s.catalogRepo.ListValues(ctx, s.db, subject.Product.ID, catalogdomain.ValueTypeDefault)
	if err != nil {
		return err
	}

	subject.DefaultValues = make(map[snowflake.ID]string, len(values))
	propertyIDs := make([]snowflake.ID, 0, len(values))
	for _, v := range values {
		if _, ok := subject.DefaultValues[v.PropertyID]; ok {
			continue
		}
		subject.DefaultValues[v.PropertyID] = v.Value
		propertyIDs = append(propertyIDs, v.PropertyID)
	}

	subject.PropertiesPrice = decimal.Zero
	if !subject.Product.IsConfigurable() || len(propertyIDs) == 0 {
		return nil
	}

	options, err := s.catalogRepo.ListOptions(ctx, s.db, propertyIDs)
	if err != nil {
		return err
	}
	for _, opt := range options {
		if subject.DefaultValues[opt.PropertyID] == opt.ID.String() {
			subject.PropertiesPrice = subject.PropertiesPrice.Add(opt.Price)
		}
	}
	return nil
}
