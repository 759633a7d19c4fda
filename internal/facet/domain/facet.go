package domain

import (
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
)

// TextValuePosition orders free text values after most options.
const TextValuePosition = 10

type SelectItem struct {
	ID           string `json:"id"`
	Value        string `json:"value"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	Position     int    `json:"position"`
	ShowQuantity bool   `json:"show_quantity"`
	Quantity     int    `json:"quantity"`
	Checked      bool   `json:"checked"`
}

type SelectField struct {
	ID        string       `json:"id"`
	Position  int          `json:"position"`
	Unit      string       `json:"unit"`
	ShowReset bool         `json:"show_reset"`
	Name      string       `json:"name"`
	Title     string       `json:"title"`
	Items     []SelectItem `json:"items"`
}

type NumberStep struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Quantity int     `json:"quantity"`
}

type NumberField struct {
	ID           string       `json:"id"`
	Position     int          `json:"position"`
	Name         string       `json:"name"`
	Title        string       `json:"title"`
	Unit         string       `json:"unit"`
	ShowReset    bool         `json:"show_reset"`
	ShowQuantity bool         `json:"show_quantity"`
	Items        Range        `json:"items"`
	Steps        []NumberStep `json:"steps"`
}

type ProductFacets struct {
	SelectFields []SelectField `json:"select_fields"`
	NumberFields []NumberField `json:"number_fields"`
}

type PriceFacet struct {
	ShowReset bool            `json:"show_reset"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Disabled  bool            `json:"disabled"`
}

type ManufacturerItem struct {
	Obj      catalogdomain.Manufacturer `json:"obj"`
	Selected bool                       `json:"selected"`
}

type ManufacturerFacet struct {
	ShowReset bool               `json:"show_reset"`
	Items     []ManufacturerItem `json:"items"`
}

// Facets is the full facet panel of a category. Price and Manufacturers are
// nil when nothing can be offered.
type Facets struct {
	SelectFields  []SelectField      `json:"select_fields"`
	NumberFields  []NumberField      `json:"number_fields"`
	Price         *PriceFacet        `json:"price"`
	Manufacturers *ManufacturerFacet `json:"manufacturers"`
}
