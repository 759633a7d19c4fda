package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/catalog/catalogtest"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/catalog/repository"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func newTestService(t *testing.T) (domain.Service, *catalogtest.Builder, *recordingPublisher) {
	t.Helper()
	db := catalogtest.NewDB(t)
	b := catalogtest.NewBuilder(t, db)
	pub := &recordingPublisher{}
	svc := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     b.Node,
		Repo:      repository.Provide(),
		Publisher: pub,
		Clock:     clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)),
	})
	return svc, b, pub
}

func storedValues(t *testing.T, db *gorm.DB, productID, propertyID snowflake.ID, vt domain.ValueType) []domain.ProductPropertyValue {
	t.Helper()
	var rows []domain.ProductPropertyValue
	require.NoError(t, db.
		Where("product_id = ? AND property_id = ? AND type = ?", productID, propertyID, vt).
		Order("value ASC").
		Find(&rows).Error)
	return rows
}

func TestGetProductRejectsInvalidID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetProduct(context.Background(), "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetProduct(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetCategory(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestListForSale(t *testing.T) {
	svc, b, _ := newTestService(t)
	shoes := b.Category("Shoes", nil, false)
	shirts := b.Category("Shirts", nil, false)

	for i := 0; i < 7; i++ {
		b.Product(catalogtest.ProductSpec{ForSale: true, Price: "20", ForSalePrice: "15", Categories: []domain.Category{shoes}})
	}
	b.Product(catalogtest.ProductSpec{ForSale: true, Price: "20", ForSalePrice: "15", Categories: []domain.Category{shirts}})
	b.Product(catalogtest.ProductSpec{ForSale: false, Price: "20", Categories: []domain.Category{shirts}})
	b.Product(catalogtest.ProductSpec{ForSale: true, Inactive: true, Price: "20", ForSalePrice: "15", Categories: []domain.Category{shirts}})

	items, err := svc.ListForSale(context.Background(), domain.ListForSaleRequest{})
	require.NoError(t, err)
	assert.Len(t, items, 5)

	items, err = svc.ListForSale(context.Background(), domain.ListForSaleRequest{Limit: 10, CategoryID: shirts.ID.String()})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].ForSale)
	assert.True(t, items[0].Active)

	_, err = svc.ListForSale(context.Background(), domain.ListForSaleRequest{CategoryID: "shirts"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestUpdatePropertiesNormalizesValues(t *testing.T) {
	svc, b, pub := newTestService(t)
	parent := b.Product(catalogtest.ProductSpec{Name: "Shirt", SubType: domain.SubTypeProductWithVariants})
	variant := b.Variant(parent, catalogtest.ProductSpec{Name: "Shirt L"})

	color := b.Property(domain.Property{Name: "Color", Filterable: true})
	red := b.Option(color, "Red", 1, "")
	width := b.Property(domain.Property{Name: "Width", Type: domain.PropertyTypeNumber, Filterable: true})
	material := b.Property(domain.Property{Name: "Material", Type: domain.PropertyTypeText, Filterable: true})

	err := svc.UpdateProperties(context.Background(), domain.UpdatePropertiesRequest{
		ProductID: variant.ID.String(),
		Type:      domain.ValueTypeFilter,
		Values: map[string][]string{
			color.ID.String():    {red.ID.String(), "999"},
			width.ID.String():    {"12.5", "wide"},
			material.ID.String(): {"Cotton"},
		},
	})
	require.NoError(t, err)

	colors := storedValues(t, b.DB, variant.ID, color.ID, domain.ValueTypeFilter)
	require.Len(t, colors, 2)
	assert.Equal(t, "0", colors[0].Value)
	assert.Equal(t, red.ID.String(), colors[1].Value)
	assert.Equal(t, parent.ID, colors[1].ParentID)

	widths := storedValues(t, b.DB, variant.ID, width.ID, domain.ValueTypeFilter)
	require.Len(t, widths, 2)
	assert.Equal(t, "0", widths[0].Value)
	assert.Equal(t, "12.5", widths[1].Value)
	require.NotNil(t, widths[1].ValueAsFloat)
	assert.InDelta(t, 12.5, *widths[1].ValueAsFloat, 1e-9)

	materials := storedValues(t, b.DB, variant.ID, material.ID, domain.ValueTypeFilter)
	require.Len(t, materials, 1)
	assert.Equal(t, "Cotton", materials[0].Value)
	assert.Nil(t, materials[0].ValueAsFloat)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeProductPropertiesUpdated, pub.events[0].Type)
	assert.Equal(t, variant.ID.String(), pub.events[0].ProductID)
}

func TestUpdatePropertiesReplacesOnlyGivenType(t *testing.T) {
	svc, b, _ := newTestService(t)
	product := b.Product(catalogtest.ProductSpec{Name: "Mug"})
	size := b.Property(domain.Property{Name: "Size", Type: domain.PropertyTypeText, Filterable: true})
	b.Value(product, size, "S", domain.ValueTypeFilter)
	b.Value(product, size, "S", domain.ValueTypeDisplay)

	err := svc.UpdateProperties(context.Background(), domain.UpdatePropertiesRequest{
		ProductID: product.ID.String(),
		Type:      domain.ValueTypeFilter,
		Values:    map[string][]string{size.ID.String(): {"M"}},
	})
	require.NoError(t, err)

	filter := storedValues(t, b.DB, product.ID, size.ID, domain.ValueTypeFilter)
	require.Len(t, filter, 1)
	assert.Equal(t, "M", filter[0].Value)
	assert.Len(t, storedValues(t, b.DB, product.ID, size.ID, domain.ValueTypeDisplay), 1)
}

func TestUpdatePropertiesRejectsUnknownInput(t *testing.T) {
	svc, b, pub := newTestService(t)
	product := b.Product(catalogtest.ProductSpec{Name: "Mug"})

	err := svc.UpdateProperties(context.Background(), domain.UpdatePropertiesRequest{
		ProductID: product.ID.String(),
		Type:      "bogus",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValueType)

	err = svc.UpdateProperties(context.Background(), domain.UpdatePropertiesRequest{
		ProductID: product.ID.String(),
		Type:      domain.ValueTypeFilter,
		Values:    map[string][]string{b.Node.Generate().String(): {"x"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProperty)
	assert.Empty(t, pub.events)
}

func TestUpdatePropertyGroupsDropsValuesOfRemovedGroups(t *testing.T) {
	svc, b, pub := newTestService(t)
	product := b.Product(catalogtest.ProductSpec{Name: "Shirt"})
	color := b.Property(domain.Property{Name: "Color", Type: domain.PropertyTypeText, Filterable: true})
	size := b.Property(domain.Property{Name: "Size", Type: domain.PropertyTypeText, Filterable: true})
	fit := b.Property(domain.Property{Name: "Fit", Type: domain.PropertyTypeText, Filterable: true})

	apparel := b.Group("Apparel", color, size)
	basics := b.Group("Basics", color)
	tailoring := b.Group("Tailoring", fit)
	b.AssignGroup(apparel, product)
	b.AssignGroup(basics, product)

	b.Value(product, color, "red", domain.ValueTypeFilter)
	b.Value(product, size, "L", domain.ValueTypeFilter)

	err := svc.UpdatePropertyGroups(context.Background(), domain.UpdatePropertyGroupsRequest{
		ProductID: product.ID.String(),
		GroupIDs:  []string{basics.ID.String(), tailoring.ID.String()},
	})
	require.NoError(t, err)

	assert.Len(t, storedValues(t, b.DB, product.ID, color.ID, domain.ValueTypeFilter), 1)
	assert.Empty(t, storedValues(t, b.DB, product.ID, size.ID, domain.ValueTypeFilter))

	var assigned []domain.ProductPropertyGroup
	require.NoError(t, b.DB.Where("product_id = ?", product.ID).Find(&assigned).Error)
	got := make([]snowflake.ID, 0, len(assigned))
	for _, a := range assigned {
		got = append(got, a.GroupID)
	}
	assert.ElementsMatch(t, []snowflake.ID{basics.ID, tailoring.ID}, got)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TypeProductPropertyGroupsUpdated, pub.events[0].Type)

	err = svc.UpdatePropertyGroups(context.Background(), domain.UpdatePropertyGroupsRequest{
		ProductID: product.ID.String(),
		GroupIDs:  []string{b.Node.Generate().String()},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidGroup)
}

func TestGetProductPropertiesMarksSelections(t *testing.T) {
	svc, b, _ := newTestService(t)
	product := b.Product(catalogtest.ProductSpec{Name: "Shirt"})
	color := b.Property(domain.Property{Name: "Color", Filterable: true, Configurable: true})
	red := b.Option(color, "Red", 1, "")
	blue := b.Option(color, "Blue", 2, "")
	note := b.Property(domain.Property{Name: "Note", Type: domain.PropertyTypeText, DisplayOnProduct: true})

	apparel := b.Group("Apparel", color, note)
	other := b.Group("Other")
	b.AssignGroup(apparel, product)

	b.Value(product, color, blue.ID.String(), domain.ValueTypeFilter)
	b.Value(product, color, red.ID.String(), domain.ValueTypeDefault)
	b.Value(product, note, "hand wash", domain.ValueTypeDisplay)

	resp, err := svc.GetProductProperties(context.Background(), product.ID.String())
	require.NoError(t, err)
	assert.Equal(t, product.ID.String(), resp.ProductID)

	require.Len(t, resp.Filterables, 1)
	require.Len(t, resp.Filterables[0].Properties, 1)
	filterColor := resp.Filterables[0].Properties[0]
	assert.True(t, filterColor.DisplaySelectField)
	require.Len(t, filterColor.Options, 2)
	assert.False(t, filterColor.Options[0].Selected)
	assert.True(t, filterColor.Options[1].Selected)

	require.Len(t, resp.Configurables[0].Properties, 1)
	assert.True(t, resp.Configurables[0].Properties[0].Options[0].Selected)

	require.Len(t, resp.Displayables[0].Properties, 1)
	assert.True(t, resp.Displayables[0].Properties[0].DisplayTextField)
	assert.Equal(t, []string{"hand wash"}, resp.Displayables[0].Properties[0].Values)

	selected := map[string]bool{}
	for _, g := range resp.Groups {
		selected[g.ID] = g.Selected
	}
	assert.True(t, selected[apparel.ID.String()])
	assert.False(t, selected[other.ID.String()])
}
