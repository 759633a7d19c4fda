// Package catalogtest builds small catalogs in in-memory sqlite databases.
package catalogtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens an isolated in-memory database with the catalog schema.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	models := append(domain.Models(), &taxdomain.Tax{})
	require.NoError(t, db.AutoMigrate(models...))
	return db
}

type Builder struct {
	t    *testing.T
	DB   *gorm.DB
	Node *snowflake.Node
	pos  int
}

func NewBuilder(t *testing.T, db *gorm.DB) *Builder {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return &Builder{t: t, DB: db, Node: node}
}

func (b *Builder) nextPosition() int {
	b.pos++
	return b.pos * 10
}

func (b *Builder) Category(name string, parent *domain.Category, showAll bool) domain.Category {
	b.t.Helper()
	c := domain.Category{
		ID:              b.Node.Generate(),
		Name:            name,
		Slug:            strings.ToLower(name),
		Position:        b.nextPosition(),
		ShowAllProducts: showAll,
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	require.NoError(b.t, b.DB.Create(&c).Error)
	return c
}

// ProductSpec describes a product; zero values get sensible defaults.
type ProductSpec struct {
	Name               string
	Price              string
	ForSale            bool
	ForSalePrice       string
	ActivePrice        bool
	ActiveForSalePrice bool
	SubType            domain.SubType
	Inactive           bool
	Tax                *taxdomain.Tax
	Manufacturer       *domain.Manufacturer
	PriceCalculator    string
	PriceCalculation   string
	PriceUnit          string
	Categories         []domain.Category
}

func (b *Builder) Product(spec ProductSpec) domain.Product {
	b.t.Helper()
	p := b.newProduct(spec)
	require.NoError(b.t, b.DB.Create(&p).Error)
	for _, c := range spec.Categories {
		require.NoError(b.t, b.DB.Create(&domain.ProductCategory{ProductID: p.ID, CategoryID: c.ID}).Error)
	}
	return p
}

func (b *Builder) Variant(parent domain.Product, spec ProductSpec) domain.Product {
	b.t.Helper()
	spec.SubType = domain.SubTypeVariant
	v := b.newProduct(spec)
	v.ParentID = &parent.ID
	require.NoError(b.t, b.DB.Create(&v).Error)
	return v
}

// SetDefaultVariant points parent at variant.
func (b *Builder) SetDefaultVariant(parent *domain.Product, variant domain.Product) {
	b.t.Helper()
	parent.DefaultVariantID = &variant.ID
	require.NoError(b.t, b.DB.Model(&domain.Product{}).
		Where("id = ?", parent.ID).
		Update("default_variant_id", variant.ID).Error)
}

func (b *Builder) newProduct(spec ProductSpec) domain.Product {
	name := spec.Name
	if name == "" {
		name = fmt.Sprintf("product-%d", b.pos+1)
	}
	subType := spec.SubType
	if subType == "" {
		subType = domain.SubTypeStandard
	}
	p := domain.Product{
		ID:                 b.Node.Generate(),
		SKU:                strings.ToUpper(strings.ReplaceAll(name, " ", "-")),
		Name:               name,
		Slug:               strings.ToLower(strings.ReplaceAll(name, " ", "-")),
		Price:              Dec(spec.Price),
		ForSale:            spec.ForSale,
		ForSalePrice:       Dec(spec.ForSalePrice),
		ActivePrice:        spec.ActivePrice,
		ActiveForSalePrice: spec.ActiveForSalePrice,
		SubType:            subType,
		Active:             !spec.Inactive,
		PriceUnit:          spec.PriceUnit,
		Position:           b.nextPosition(),
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	if spec.Tax != nil {
		p.TaxID = &spec.Tax.ID
	}
	if spec.Manufacturer != nil {
		p.ManufacturerID = &spec.Manufacturer.ID
	}
	if spec.PriceCalculator != "" {
		calc := spec.PriceCalculator
		p.PriceCalculator = &calc
	}
	if spec.PriceCalculation != "" {
		expr := spec.PriceCalculation
		p.PriceCalculation = &expr
	}
	p.SyncEffectivePrice()
	return p
}

func (b *Builder) Manufacturer(name string) domain.Manufacturer {
	b.t.Helper()
	m := domain.Manufacturer{
		ID:       b.Node.Generate(),
		Name:     name,
		Slug:     strings.ToLower(name),
		Position: b.nextPosition(),
	}
	require.NoError(b.t, b.DB.Create(&m).Error)
	return m
}

func (b *Builder) Tax(rate string) taxdomain.Tax {
	b.t.Helper()
	tax := taxdomain.Tax{ID: b.Node.Generate(), Rate: Dec(rate)}
	require.NoError(b.t, b.DB.Create(&tax).Error)
	return tax
}

func (b *Builder) Property(p domain.Property) domain.Property {
	b.t.Helper()
	p.ID = b.Node.Generate()
	if p.Type == "" {
		p.Type = domain.PropertyTypeSelect
	}
	if p.StepType == "" {
		p.StepType = domain.StepTypeAutomatic
	}
	if p.Position == 0 {
		p.Position = b.nextPosition()
	}
	if p.Title == "" {
		p.Title = p.Name
	}
	require.NoError(b.t, b.DB.Create(&p).Error)
	return p
}

func (b *Builder) Option(property domain.Property, name string, position int, price string) domain.PropertyOption {
	b.t.Helper()
	o := domain.PropertyOption{
		ID:         b.Node.Generate(),
		PropertyID: property.ID,
		Name:       name,
		Price:      Dec(price),
		Position:   position,
	}
	require.NoError(b.t, b.DB.Create(&o).Error)
	return o
}

func (b *Builder) FilterStep(property domain.Property, start float64) {
	b.t.Helper()
	require.NoError(b.t, b.DB.Create(&domain.FilterStep{
		ID:         b.Node.Generate(),
		PropertyID: property.ID,
		Start:      start,
	}).Error)
}

// Value stores a property value; select values should be option ids.
func (b *Builder) Value(product domain.Product, property domain.Property, value string, vt domain.ValueType) {
	b.t.Helper()
	row := domain.ProductPropertyValue{
		ID:         b.Node.Generate(),
		ProductID:  product.ID,
		ParentID:   product.FamilyID(),
		PropertyID: property.ID,
		Value:      value,
		Type:       vt,
	}
	if f, err := decimal.NewFromString(value); err == nil {
		v := f.InexactFloat64()
		row.ValueAsFloat = &v
	}
	require.NoError(b.t, b.DB.Create(&row).Error)
}

// FilterValue is Value with the filter purpose.
func (b *Builder) FilterValue(product domain.Product, property domain.Property, value string) {
	b.t.Helper()
	b.Value(product, property, value, domain.ValueTypeFilter)
}

func (b *Builder) Group(name string, properties ...domain.Property) domain.PropertyGroup {
	b.t.Helper()
	g := domain.PropertyGroup{ID: b.Node.Generate(), Name: name}
	require.NoError(b.t, b.DB.Create(&g).Error)
	for i, p := range properties {
		require.NoError(b.t, b.DB.Create(&domain.PropertyGroupProperty{
			GroupID:    g.ID,
			PropertyID: p.ID,
			Position:   i,
		}).Error)
	}
	return g
}

func (b *Builder) AssignGroup(group domain.PropertyGroup, product domain.Product) {
	b.t.Helper()
	require.NoError(b.t, b.DB.Create(&domain.ProductPropertyGroup{GroupID: group.ID, ProductID: product.ID}).Error)
}

// Dec parses a decimal, treating "" as zero.
func Dec(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}
