// Package seed loads a small demo catalog for local and self-hosted setups.
package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	lockKey = "storefront:seed:lock"
	lockTTL = time.Minute

	rootCategoryName = "Demo Store"
)

// Seeder writes the demo catalog once per database.
type Seeder struct {
	db     *gorm.DB
	node   *snowflake.Node
	locker *ratelimit.Locker
	log    *zap.Logger
}

func New(db *gorm.DB, node *snowflake.Node, locker *ratelimit.Locker, log *zap.Logger) *Seeder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Seeder{
		db:     db,
		node:   node,
		locker: locker,
		log:    log.Named("seed"),
	}
}

// EnsureDemoCatalog seeds the demo catalog unless its root category exists.
// Another replica holding the seed lock makes this a no-op.
func (s *Seeder) EnsureDemoCatalog(ctx context.Context) error {
	if s.db == nil {
		return errors.New("seed database handle is required")
	}
	if s.node == nil {
		return errors.New("seed id generator is required")
	}

	seeded := false
	acquired, err := s.locker.WithLock(ctx, lockKey, lockTTL, func(ctx context.Context) error {
		count, err := repository.ProvideStore[catalogdomain.Category](s.db).
			Count(ctx, &catalogdomain.Category{Slug: slug.Make(rootCategoryName)})
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		seeded = true
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return (&catalogWriter{ctx: ctx, tx: tx, node: s.node, now: time.Now().UTC()}).write()
		})
	})
	if err != nil {
		return err
	}
	if !acquired {
		s.log.Info("demo catalog seed skipped, lock held elsewhere")
		return nil
	}
	if !seeded {
		s.log.Debug("demo catalog already present")
		return nil
	}
	s.log.Info("demo catalog seeded")
	return nil
}

type catalogWriter struct {
	ctx  context.Context
	tx   *gorm.DB
	node *snowflake.Node
	now  time.Time
	pos  int
}

func (w *catalogWriter) position() int {
	w.pos += 10
	return w.pos
}

func (w *catalogWriter) write() error {
	tax := taxdomain.Tax{ID: w.node.Generate(), Rate: decimal.NewFromInt(19), Description: "Standard rate"}
	if err := w.tx.Create(&tax).Error; err != nil {
		return err
	}

	maker, err := w.manufacturer("Northwind Apparel")
	if err != nil {
		return err
	}
	other, err := w.manufacturer("Blue Harbor")
	if err != nil {
		return err
	}

	root, err := w.category(rootCategoryName, nil, true)
	if err != nil {
		return err
	}
	shirts, err := w.category("Shirts", &root.ID, false)
	if err != nil {
		return err
	}
	mugs, err := w.category("Mugs", &root.ID, false)
	if err != nil {
		return err
	}

	color, err := w.property(catalogdomain.Property{Name: "color", Title: "Color", Type: catalogdomain.PropertyTypeSelect, Filterable: true, Configurable: true, DisplayOnProduct: true})
	if err != nil {
		return err
	}
	colors, err := w.options(color, "Red", "Blue", "Green")
	if err != nil {
		return err
	}
	size, err := w.property(catalogdomain.Property{Name: "size", Title: "Size", Type: catalogdomain.PropertyTypeSelect, Filterable: true, DisplayOnProduct: true})
	if err != nil {
		return err
	}
	sizes, err := w.options(size, "S", "M", "L")
	if err != nil {
		return err
	}
	capacity, err := w.property(catalogdomain.Property{Name: "capacity", Title: "Capacity", Type: catalogdomain.PropertyTypeNumber, Unit: "ml", Filterable: true, StepType: catalogdomain.StepTypeFixed, Step: 100})
	if err != nil {
		return err
	}
	material, err := w.property(catalogdomain.Property{Name: "material", Title: "Material", Type: catalogdomain.PropertyTypeText, DisplayOnProduct: true})
	if err != nil {
		return err
	}

	apparel, err := w.group("Apparel", color, size, material)
	if err != nil {
		return err
	}
	kitchen, err := w.group("Kitchen", color, capacity)
	if err != nil {
		return err
	}

	tee, err := w.product(catalogdomain.Product{
		Name:           "Classic Tee",
		Price:          decimal.NewFromInt(25),
		SubType:        catalogdomain.SubTypeProductWithVariants,
		TaxID:          &tax.ID,
		ManufacturerID: &maker.ID,
	}, shirts)
	if err != nil {
		return err
	}
	if err := w.assign(apparel, tee); err != nil {
		return err
	}
	if err := w.value(tee, material, "Cotton", catalogdomain.ValueTypeDisplay); err != nil {
		return err
	}

	var defaultVariant *catalogdomain.Product
	for i, combo := range [][2]int{{0, 0}, {0, 2}, {1, 1}} {
		variant, err := w.product(catalogdomain.Product{
			Name:     "Classic Tee " + colors[combo[0]].Name + " " + sizes[combo[1]].Name,
			Price:    decimal.NewFromInt(int64(25 + i*2)),
			SubType:  catalogdomain.SubTypeVariant,
			ParentID: &tee.ID,
		})
		if err != nil {
			return err
		}
		if err := w.filterOption(variant, color, colors[combo[0]]); err != nil {
			return err
		}
		if err := w.filterOption(variant, size, sizes[combo[1]]); err != nil {
			return err
		}
		if defaultVariant == nil {
			defaultVariant = &variant
		}
	}
	if err := w.tx.Model(&catalogdomain.Product{}).
		Where("id = ?", tee.ID).
		Update("default_variant_id", defaultVariant.ID).Error; err != nil {
		return err
	}

	polo, err := w.product(catalogdomain.Product{
		Name:           "Harbor Polo",
		Price:          decimal.NewFromInt(45),
		ForSale:        true,
		ForSalePrice:   decimal.NewFromInt(39),
		TaxID:          &tax.ID,
		ManufacturerID: &other.ID,
	}, shirts)
	if err != nil {
		return err
	}
	if err := w.assign(apparel, polo); err != nil {
		return err
	}
	if err := w.filterOption(polo, color, colors[1]); err != nil {
		return err
	}
	for _, opt := range sizes[1:] {
		if err := w.filterOption(polo, size, opt); err != nil {
			return err
		}
	}

	for _, spec := range []struct {
		name     string
		price    int64
		color    catalogdomain.PropertyOption
		capacity string
	}{
		{"Espresso Cup", 9, colors[0], "90"},
		{"Morning Mug", 14, colors[1], "350"},
		{"Travel Mug", 22, colors[2], "500"},
	} {
		calc := "net"
		mug, err := w.product(catalogdomain.Product{
			Name:            spec.name,
			Price:           decimal.NewFromInt(spec.price),
			TaxID:           &tax.ID,
			ManufacturerID:  &other.ID,
			PriceCalculator: &calc,
			PriceUnit:       "piece",
		}, mugs)
		if err != nil {
			return err
		}
		if err := w.assign(kitchen, mug); err != nil {
			return err
		}
		if err := w.filterOption(mug, color, spec.color); err != nil {
			return err
		}
		if err := w.value(mug, capacity, spec.capacity, catalogdomain.ValueTypeFilter); err != nil {
			return err
		}
	}
	return nil
}

func (w *catalogWriter) manufacturer(name string) (catalogdomain.Manufacturer, error) {
	m := catalogdomain.Manufacturer{
		ID:       w.node.Generate(),
		Name:     name,
		Slug:     slug.Make(name),
		Position: w.position(),
	}
	return m, w.tx.Create(&m).Error
}

func (w *catalogWriter) category(name string, parentID *snowflake.ID, showAll bool) (catalogdomain.Category, error) {
	c := catalogdomain.Category{
		ID:              w.node.Generate(),
		ParentID:        parentID,
		Name:            name,
		Slug:            slug.Make(name),
		Position:        w.position(),
		ShowAllProducts: showAll,
		CreatedAt:       w.now,
		UpdatedAt:       w.now,
	}
	return c, w.tx.Create(&c).Error
}

func (w *catalogWriter) property(p catalogdomain.Property) (catalogdomain.Property, error) {
	p.ID = w.node.Generate()
	p.Position = w.position()
	if p.StepType == "" {
		p.StepType = catalogdomain.StepTypeAutomatic
	}
	return p, w.tx.Create(&p).Error
}

func (w *catalogWriter) options(property catalogdomain.Property, names ...string) ([]catalogdomain.PropertyOption, error) {
	rows := make([]*catalogdomain.PropertyOption, 0, len(names))
	for i, name := range names {
		rows = append(rows, &catalogdomain.PropertyOption{
			ID:         w.node.Generate(),
			PropertyID: property.ID,
			Name:       name,
			Position:   i + 1,
		})
	}
	if err := repository.ProvideStore[catalogdomain.PropertyOption](w.tx).BatchCreate(w.ctx, rows); err != nil {
		return nil, err
	}

	out := make([]catalogdomain.PropertyOption, 0, len(rows))
	for _, o := range rows {
		out = append(out, *o)
	}
	return out, nil
}

func (w *catalogWriter) group(name string, properties ...catalogdomain.Property) (catalogdomain.PropertyGroup, error) {
	g := catalogdomain.PropertyGroup{ID: w.node.Generate(), Name: name}
	if err := w.tx.Create(&g).Error; err != nil {
		return g, err
	}
	for i, p := range properties {
		if err := w.tx.Create(&catalogdomain.PropertyGroupProperty{GroupID: g.ID, PropertyID: p.ID, Position: i}).Error; err != nil {
			return g, err
		}
	}
	return g, nil
}

func (w *catalogWriter) product(p catalogdomain.Product, categories ...catalogdomain.Category) (catalogdomain.Product, error) {
	p.ID = w.node.Generate()
	p.Slug = slug.Make(p.Name)
	p.SKU = strings.ToUpper(p.Slug)
	p.Active = true
	if p.SubType == "" {
		p.SubType = catalogdomain.SubTypeStandard
	}
	if p.Position == 0 {
		p.Position = w.position()
	}
	p.CreatedAt = w.now
	p.UpdatedAt = w.now
	p.SyncEffectivePrice()
	if err := w.tx.Create(&p).Error; err != nil {
		return p, err
	}
	for _, c := range categories {
		if err := w.tx.Create(&catalogdomain.ProductCategory{ProductID: p.ID, CategoryID: c.ID}).Error; err != nil {
			return p, err
		}
	}
	return p, nil
}

func (w *catalogWriter) assign(group catalogdomain.PropertyGroup, product catalogdomain.Product) error {
	return w.tx.Create(&catalogdomain.ProductPropertyGroup{GroupID: group.ID, ProductID: product.ID}).Error
}

func (w *catalogWriter) filterOption(product catalogdomain.Product, property catalogdomain.Property, option catalogdomain.PropertyOption) error {
	return w.value(product, property, option.ID.String(), catalogdomain.ValueTypeFilter)
}

func (w *catalogWriter) value(product catalogdomain.Product, property catalogdomain.Property, value string, vt catalogdomain.ValueType) error {
	row := catalogdomain.ProductPropertyValue{
		ID:         w.node.Generate(),
		ProductID:  product.ID,
		ParentID:   product.FamilyID(),
		PropertyID: property.ID,
		Value:      value,
		Type:       vt,
	}
	if property.IsNumber() {
		if f, err := decimal.NewFromString(value); err == nil {
			v := f.InexactFloat64()
			row.ValueAsFloat = &v
		}
	}
	return w.tx.Create(&row).Error
}
