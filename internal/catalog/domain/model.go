package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SubType string

const (
	SubTypeStandard            SubType = "standard"
	SubTypeProductWithVariants SubType = "product_with_variants"
	SubTypeVariant             SubType = "variant"
	SubTypeConfigurable        SubType = "configurable"
)

// ListableSubTypes are the sub types shown in category listings.
var ListableSubTypes = []SubType{SubTypeStandard, SubTypeProductWithVariants, SubTypeConfigurable}

type Product struct {
	ID                 snowflake.ID      `json:"id" gorm:"primaryKey"`
	SKU                string            `json:"sku" gorm:"type:text;not null;index"`
	Name               string            `json:"name" gorm:"type:text;not null"`
	Slug               string            `json:"slug" gorm:"type:text;not null;index"`
	Price              decimal.Decimal   `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	EffectivePrice     decimal.Decimal   `json:"effective_price" gorm:"type:numeric(12,2);not null;default:0"`
	ForSale            bool              `json:"for_sale" gorm:"not null;default:false"`
	ForSalePrice       decimal.Decimal   `json:"for_sale_price" gorm:"type:numeric(12,2);not null;default:0"`
	ActivePrice        bool              `json:"active_price" gorm:"not null;default:false"`
	ActiveForSalePrice bool              `json:"active_for_sale_price" gorm:"not null;default:false"`
	TaxID              *snowflake.ID     `json:"tax_id,omitempty" gorm:"index"`
	ManufacturerID     *snowflake.ID     `json:"manufacturer_id,omitempty" gorm:"index"`
	ParentID           *snowflake.ID     `json:"parent_id,omitempty" gorm:"index"`
	DefaultVariantID   *snowflake.ID     `json:"default_variant_id,omitempty"`
	SubType            SubType           `json:"sub_type" gorm:"type:text;not null;default:standard"`
	Active             bool              `json:"active" gorm:"not null"`
	PriceCalculator    *string           `json:"price_calculator,omitempty" gorm:"type:text"`
	PriceCalculation   *string           `json:"price_calculation,omitempty" gorm:"type:text"`
	PriceUnit          string            `json:"price_unit,omitempty" gorm:"type:text"`
	Position           int               `json:"position" gorm:"not null;default:0"`
	Metadata           datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

func (p *Product) IsVariant() bool             { return p.SubType == SubTypeVariant }
func (p *Product) IsProductWithVariants() bool { return p.SubType == SubTypeProductWithVariants }
func (p *Product) IsConfigurable() bool        { return p.SubType == SubTypeConfigurable }

// FamilyID is the id facet counts roll up to.
func (p *Product) FamilyID() snowflake.ID {
	if p.IsVariant() && p.ParentID != nil {
		return *p.ParentID
	}
	return p.ID
}

// SyncEffectivePrice keeps effective_price in step with the sale flag.
func (p *Product) SyncEffectivePrice() {
	if p.ForSale {
		p.EffectivePrice = p.ForSalePrice
		return
	}
	p.EffectivePrice = p.Price
}

type Category struct {
	ID              snowflake.ID  `json:"id" gorm:"primaryKey"`
	ParentID        *snowflake.ID `json:"parent_id,omitempty" gorm:"index"`
	Name            string        `json:"name" gorm:"type:text;not null"`
	Slug            string        `json:"slug" gorm:"type:text;not null;index"`
	Position        int           `json:"position" gorm:"not null;default:0"`
	ShowAllProducts bool          `json:"show_all_products" gorm:"not null;default:false"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

type ProductCategory struct {
	ProductID  snowflake.ID `gorm:"primaryKey"`
	CategoryID snowflake.ID `gorm:"primaryKey;index"`
}

func (ProductCategory) TableName() string { return "product_categories" }

type Manufacturer struct {
	ID       snowflake.ID `json:"id" gorm:"primaryKey"`
	Name     string       `json:"name" gorm:"type:text;not null"`
	Slug     string       `json:"slug" gorm:"type:text;not null"`
	Position int          `json:"position" gorm:"not null;default:0"`
}

func (Manufacturer) TableName() string { return "manufacturers" }

type PropertyType string

const (
	PropertyTypeSelect PropertyType = "select"
	PropertyTypeText   PropertyType = "text"
	PropertyTypeNumber PropertyType = "number"
)

type StepType string

const (
	StepTypeAutomatic StepType = "automatic"
	StepTypeFixed     StepType = "fixed"
	StepTypeSteps     StepType = "steps"
)

type Property struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	Name             string       `json:"name" gorm:"type:text;not null"`
	Title            string       `json:"title" gorm:"type:text"`
	Type             PropertyType `json:"type" gorm:"type:text;not null;default:select"`
	Position         int          `json:"position" gorm:"not null;default:0"`
	Unit             string       `json:"unit,omitempty" gorm:"type:text"`
	Filterable       bool         `json:"filterable" gorm:"not null"`
	Configurable     bool         `json:"configurable" gorm:"not null;default:false"`
	DisplayOnProduct bool         `json:"display_on_product" gorm:"not null;default:false"`
	DisplayNoResults bool         `json:"display_no_results" gorm:"not null;default:false"`
	StepType         StepType     `json:"step_type" gorm:"type:text;not null;default:automatic"`
	Step             int          `json:"step" gorm:"not null;default:0"`
	UnitMin          *float64     `json:"unit_min,omitempty"`
	UnitMax          *float64     `json:"unit_max,omitempty"`
	UnitStep         *float64     `json:"unit_step,omitempty"`
}

func (Property) TableName() string { return "properties" }

func (p *Property) IsSelect() bool { return p.Type == PropertyTypeSelect }
func (p *Property) IsText() bool   { return p.Type == PropertyTypeText }
func (p *Property) IsNumber() bool { return p.Type == PropertyTypeNumber }

type PropertyOption struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	PropertyID snowflake.ID    `json:"property_id" gorm:"not null;index"`
	Name       string          `json:"name" gorm:"type:text;not null"`
	Price      decimal.Decimal `json:"price" gorm:"type:numeric(12,2);not null;default:0"`
	Position   int             `json:"position" gorm:"not null;default:0"`
}

func (PropertyOption) TableName() string { return "property_options" }

type FilterStep struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	PropertyID snowflake.ID `json:"property_id" gorm:"not null;index"`
	Start      float64      `json:"start" gorm:"not null"`
}

func (FilterStep) TableName() string { return "filter_steps" }

type ValueType string

const (
	ValueTypeDefault ValueType = "default"
	ValueTypeFilter  ValueType = "filter"
	ValueTypeDisplay ValueType = "display"
)

func (t ValueType) Valid() bool {
	switch t {
	case ValueTypeDefault, ValueTypeFilter, ValueTypeDisplay:
		return true
	}
	return false
}

type ProductPropertyValue struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	ProductID    snowflake.ID `json:"product_id" gorm:"not null;index"`
	ParentID     snowflake.ID `json:"parent_id" gorm:"not null;index"`
	PropertyID   snowflake.ID `json:"property_id" gorm:"not null;index"`
	Value        string       `json:"value" gorm:"type:text;not null"`
	ValueAsFloat *float64     `json:"value_as_float,omitempty"`
	Type         ValueType    `json:"type" gorm:"type:text;not null;index"`
}

func (ProductPropertyValue) TableName() string { return "product_property_values" }

type PropertyGroup struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null"`
}

func (PropertyGroup) TableName() string { return "property_groups" }

type PropertyGroupProperty struct {
	GroupID    snowflake.ID `gorm:"primaryKey"`
	PropertyID snowflake.ID `gorm:"primaryKey"`
	Position   int          `gorm:"not null;default:0"`
}

func (PropertyGroupProperty) TableName() string { return "property_group_properties" }

type ProductPropertyGroup struct {
	GroupID   snowflake.ID `gorm:"primaryKey"`
	ProductID snowflake.ID `gorm:"primaryKey;index"`
}

func (ProductPropertyGroup) TableName() string { return "product_property_groups" }

// Models lists every catalog table for AutoMigrate.
func Models() []any {
	return []any{
		&Product{},
		&Category{},
		&ProductCategory{},
		&Manufacturer{},
		&Property{},
		&PropertyOption{},
		&FilterStep{},
		&ProductPropertyValue{},
		&PropertyGroup{},
		&PropertyGroupProperty{},
		&ProductPropertyGroup{},
	}
}
