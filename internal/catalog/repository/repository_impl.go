package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const productColumns = `id, sku, name, slug, price, effective_price, for_sale, for_sale_price,
	active_price, active_for_sale_price, tax_id, manufacturer_id, parent_id, default_variant_id,
	sub_type, active, price_calculator, price_calculation, price_unit, position, metadata,
	created_at, updated_at`

func (r *repo) FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, parent_id, name, slug, position, show_all_products, created_at, updated_at
		 FROM categories WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var items []domain.Category
	err := db.WithContext(ctx).
		Model(&domain.Category{}).
		Order("position ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FirstCategoryOfProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) (*domain.Category, error) {
	var c domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, c.parent_id, c.name, c.slug, c.position, c.show_all_products, c.created_at, c.updated_at
		 FROM categories c
		 JOIN product_categories pc ON pc.category_id = c.id
		 WHERE pc.product_id = ?
		 ORDER BY c.position ASC, c.id ASC
		 LIMIT 1`,
		productID,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindProductByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT `+productColumns+` FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindProductsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListForSale(ctx context.Context, db *gorm.DB, categoryID *snowflake.ID, limit int) ([]domain.Product, error) {
	var items []domain.Product
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("products.for_sale = ? AND products.active = ?", true, true)
	if categoryID != nil {
		stmt = stmt.Where("products.id IN (?)",
			db.Model(&domain.ProductCategory{}).Select("product_id").Where("category_id = ?", *categoryID))
	}

	page := pagination.Pagination{PageSize: limit}
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("products.position ASC, products.id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) > page.Size() {
		items = items[:page.Size()]
	}
	return items, nil
}

func (r *repo) FindPropertyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Property, error) {
	var p domain.Property
	err := db.WithContext(ctx).
		Model(&domain.Property{}).
		Where("id = ?", id).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListProperties(ctx context.Context, db *gorm.DB) ([]domain.Property, error) {
	var items []domain.Property
	err := db.WithContext(ctx).
		Model(&domain.Property{}).
		Order("position ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListOptions(ctx context.Context, db *gorm.DB, propertyIDs []snowflake.ID) ([]domain.PropertyOption, error) {
	var items []domain.PropertyOption
	stmt := db.WithContext(ctx).Model(&domain.PropertyOption{})
	if propertyIDs != nil {
		if len(propertyIDs) == 0 {
			return []domain.PropertyOption{}, nil
		}
		stmt = stmt.Where("property_id IN ?", propertyIDs)
	}
	err := stmt.Order("position ASC, id ASC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListFilterSteps(ctx context.Context, db *gorm.DB, propertyID snowflake.ID) ([]domain.FilterStep, error) {
	var items []domain.FilterStep
	err := db.WithContext(ctx).
		Model(&domain.FilterStep{}).
		Where("property_id = ?", propertyID).
		Order("start ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListPropertyGroups(ctx context.Context, db *gorm.DB) ([]domain.PropertyGroup, error) {
	var items []domain.PropertyGroup
	err := db.WithContext(ctx).
		Model(&domain.PropertyGroup{}).
		Order("name ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListProductGroupIDs(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).
		Model(&domain.ProductPropertyGroup{}).
		Where("product_id = ?", productID).
		Order("group_id ASC").
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) ListGroupProperties(ctx context.Context, db *gorm.DB, groupIDs []snowflake.ID) ([]domain.GroupProperty, error) {
	if len(groupIDs) == 0 {
		return []domain.GroupProperty{}, nil
	}
	var items []domain.GroupProperty
	err := db.WithContext(ctx).Raw(
		`SELECT gp.group_id, gp.position AS group_position,
		        p.id, p.name, p.title, p.type, p.position, p.unit, p.filterable, p.configurable,
		        p.display_on_product, p.display_no_results, p.step_type, p.step,
		        p.unit_min, p.unit_max, p.unit_step
		 FROM property_group_properties gp
		 JOIN properties p ON p.id = gp.property_id
		 WHERE gp.group_id IN ?
		 ORDER BY gp.group_id ASC, gp.position ASC, p.id ASC`,
		groupIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AssignGroup(ctx context.Context, db *gorm.DB, groupID, productID snowflake.ID) error {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.ProductPropertyGroup{}).
		Where("group_id = ? AND product_id = ?", groupID, productID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&domain.ProductPropertyGroup{GroupID: groupID, ProductID: productID}).Error
}

func (r *repo) UnassignGroup(ctx context.Context, db *gorm.DB, groupID, productID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM product_property_groups WHERE group_id = ? AND product_id = ?`,
		groupID,
		productID,
	).Error
}

func (r *repo) ListValues(ctx context.Context, db *gorm.DB, productID snowflake.ID, valueType domain.ValueType) ([]domain.ProductPropertyValue, error) {
	var items []domain.ProductPropertyValue
	err := db.WithContext(ctx).
		Model(&domain.ProductPropertyValue{}).
		Where("product_id = ? AND type = ?", productID, valueType).
		Order("property_id ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceValues(ctx context.Context, db *gorm.DB, productID, propertyID snowflake.ID, valueType domain.ValueType, values []domain.ProductPropertyValue) error {
	err := db.WithContext(ctx).Exec(
		`DELETE FROM product_property_values WHERE product_id = ? AND property_id = ? AND type = ?`,
		productID,
		propertyID,
		valueType,
	).Error
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&values).Error
}

func (r *repo) DeleteValuesForProperties(ctx context.Context, db *gorm.DB, productID snowflake.ID, propertyIDs []snowflake.ID) error {
	if len(propertyIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`DELETE FROM product_property_values WHERE product_id = ? AND property_id IN ?`,
		productID,
		propertyIDs,
	).Error
}
