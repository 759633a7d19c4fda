package repository

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/facet/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"github.com/smallbiznis/storefront/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func listableSubTypes() []string {
	out := make([]string, 0, len(catalogdomain.ListableSubTypes))
	for _, st := range catalogdomain.ListableSubTypes {
		out = append(out, string(st))
	}
	return out
}

func (r *repo) ListBaseProducts(ctx context.Context, db *gorm.DB, categoryIDs []snowflake.ID, opts ...option.QueryOption) ([]catalogdomain.Product, error) {
	if len(categoryIDs) == 0 {
		return []catalogdomain.Product{}, nil
	}

	inCategory := db.Model(&catalogdomain.ProductCategory{}).
		Select("product_id").
		Where("category_id IN ?", categoryIDs)

	stmt := db.WithContext(ctx).
		Model(&catalogdomain.Product{}).
		Where("active = ? AND sub_type IN ?", true, listableSubTypes()).
		Where("id IN (?)", inCategory)
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var items []catalogdomain.Product
	err := stmt.Order("position ASC, id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListActiveVariants(ctx context.Context, db *gorm.DB, parentIDs []snowflake.ID) ([]catalogdomain.Product, error) {
	if len(parentIDs) == 0 {
		return []catalogdomain.Product{}, nil
	}
	var items []catalogdomain.Product
	err := db.WithContext(ctx).
		Model(&catalogdomain.Product{}).
		Where("active = ? AND sub_type = ? AND parent_id IN ?", true, string(catalogdomain.SubTypeVariant), parentIDs).
		Order("position ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListFilterValues(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) ([]catalogdomain.ProductPropertyValue, error) {
	if len(productIDs) == 0 {
		return []catalogdomain.ProductPropertyValue{}, nil
	}
	var items []catalogdomain.ProductPropertyValue
	err := db.WithContext(ctx).
		Model(&catalogdomain.ProductPropertyValue{}).
		Where("type = ? AND product_id IN ?", string(catalogdomain.ValueTypeFilter), productIDs).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListManufacturers(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]catalogdomain.Manufacturer, error) {
	if len(ids) == 0 {
		return []catalogdomain.Manufacturer{}, nil
	}

	store := repository.ProvideStore[catalogdomain.Manufacturer](db)
	found, err := store.Find(ctx, &catalogdomain.Manufacturer{},
		option.ApplyOperator(option.Condition{Field: "id", Operator: option.IN, Value: ids}),
	)
	if err != nil {
		return nil, err
	}

	items := make([]catalogdomain.Manufacturer, 0, len(found))
	for _, m := range found {
		items = append(items, *m)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}
