package service

import (
	"strings"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	pricedomain "github.com/smallbiznis/storefront/internal/price/domain"
	taxservice "github.com/smallbiznis/storefront/internal/tax/service"
)

// base holds the price resolution shared by both strategies.
type base struct {
	subject pricedomain.Subject
}

// resolved is the product whose stored prices apply: the default variant of
// a product with variants, otherwise the product itself.
func (b *base) resolved() *catalogdomain.Product {
	p := b.subject.Product
	if p.IsProductWithVariants() && b.subject.DefaultVariant != nil {
		return b.subject.DefaultVariant
	}
	return p
}

func (b *base) parentOf(p *catalogdomain.Product) *catalogdomain.Product {
	if p == b.subject.DefaultVariant {
		return b.subject.Product
	}
	return b.subject.Parent
}

func (b *base) propertiesPrice(p *catalogdomain.Product, withProperties bool) decimal.Decimal {
	if !withProperties || !p.IsConfigurable() {
		return decimal.Zero
	}
	return b.subject.PropertiesPrice
}

func (b *base) GetStandardPrice(withProperties bool) decimal.Decimal {
	p := b.resolved()
	owner := p
	if p.IsVariant() && !p.ActivePrice {
		if parent := b.parentOf(p); parent != nil {
			owner = parent
		}
	}
	return owner.Price.Add(b.propertiesPrice(owner, withProperties))
}

func (b *base) GetForSalePrice() decimal.Decimal {
	p := b.resolved()
	if p.IsVariant() && !p.ActiveForSalePrice {
		if parent := b.parentOf(p); parent != nil {
			return parent.ForSalePrice
		}
	}
	return p.ForSalePrice
}

// IsForSale follows the same inheritance as the sale price.
func (b *base) IsForSale() bool {
	p := b.resolved()
	if p.IsVariant() && !p.ActiveForSalePrice {
		if parent := b.parentOf(p); parent != nil {
			return parent.ForSale
		}
	}
	return p.ForSale
}

// realPrice is the stored price a customer pays before tax handling.
func (b *base) realPrice(withProperties bool) decimal.Decimal {
	p := b.resolved()
	var price decimal.Decimal
	if b.IsForSale() {
		price = b.GetForSalePrice()
	} else {
		price = b.GetStandardPrice(false)
	}
	return price.Add(b.propertiesPrice(p, withProperties))
}

func (b *base) GetTaxRate() decimal.Decimal {
	return b.subject.TaxRate
}

func (b *base) CalculatePrice(price decimal.Decimal) decimal.Decimal {
	expr := ""
	if b.subject.Product.PriceCalculation != nil {
		expr = *b.subject.Product.PriceCalculation
	}
	return price.Mul(evaluateMultiplier(expr, b.subject.DefaultValues))
}

func (b *base) withUnit(price decimal.Decimal) string {
	settings := b.subject.Settings
	out := settings.CurrencySymbol + price.StringFixed(settings.DecimalPlaces)
	if unit := strings.TrimSpace(b.subject.Product.PriceUnit); unit != "" {
		out += " / " + unit
	}
	return out
}

// Gross treats stored prices as tax inclusive.
type Gross struct {
	base
}

func NewGross(subject pricedomain.Subject) *Gross {
	return &Gross{base{subject: subject}}
}

func (g *Gross) Name() string { return "gross" }

func (g *Gross) PricesIncludeTax() bool { return true }

func (g *Gross) GetPrice(withProperties bool) decimal.Decimal {
	return g.GetPriceGross(withProperties)
}

func (g *Gross) GetPriceGross(withProperties bool) decimal.Decimal {
	return g.realPrice(withProperties)
}

func (g *Gross) GetTax(withProperties bool) decimal.Decimal {
	return taxservice.ComputeTaxInclusive(g.GetPriceGross(withProperties), g.GetTaxRate())
}

func (g *Gross) GetPriceNet(withProperties bool) decimal.Decimal {
	return g.GetPriceGross(withProperties).Sub(g.GetTax(withProperties))
}

func (g *Gross) GetPriceWithUnit() string {
	return g.withUnit(g.GetPrice(true))
}

// Net treats stored prices as tax exclusive.
type Net struct {
	base
}

func NewNet(subject pricedomain.Subject) *Net {
	return &Net{base{subject: subject}}
}

func (n *Net) Name() string { return "net" }

func (n *Net) PricesIncludeTax() bool { return false }

func (n *Net) GetPrice(withProperties bool) decimal.Decimal {
	return n.GetPriceNet(withProperties)
}

func (n *Net) GetPriceNet(withProperties bool) decimal.Decimal {
	return n.realPrice(withProperties)
}

func (n *Net) GetTax(withProperties bool) decimal.Decimal {
	return taxservice.ComputeTaxExclusive(n.GetPriceNet(withProperties), n.GetTaxRate())
}

func (n *Net) GetPriceGross(withProperties bool) decimal.Decimal {
	return n.GetPriceNet(withProperties).Add(n.GetTax(withProperties))
}

func (n *Net) GetPriceWithUnit() string {
	return n.withUnit(n.GetPrice(true))
}

var (
	_ pricedomain.Calculator = (*Gross)(nil)
	_ pricedomain.Calculator = (*Net)(nil)
)
