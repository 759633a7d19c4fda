package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// GroupProperty is a property as listed inside a property group.
type GroupProperty struct {
	GroupID       snowflake.ID
	GroupPosition int
	Property
}

type Repository interface {
	FindCategoryByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	ListCategories(ctx context.Context, db *gorm.DB) ([]Category, error)
	FirstCategoryOfProduct(ctx context.Context, db *gorm.DB, productID snowflake.ID) (*Category, error)

	FindProductByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindProductsByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	ListForSale(ctx context.Context, db *gorm.DB, categoryID *snowflake.ID, limit int) ([]Product, error)

	FindPropertyByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Property, error)
	ListProperties(ctx context.Context, db *gorm.DB) ([]Property, error)
	ListOptions(ctx context.Context, db *gorm.DB, propertyIDs []snowflake.ID) ([]PropertyOption, error)
	ListFilterSteps(ctx context.Context, db *gorm.DB, propertyID snowflake.ID) ([]FilterStep, error)

	ListPropertyGroups(ctx context.Context, db *gorm.DB) ([]PropertyGroup, error)
	ListProductGroupIDs(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]snowflake.ID, error)
	ListGroupProperties(ctx context.Context, db *gorm.DB, groupIDs []snowflake.ID) ([]GroupProperty, error)
	AssignGroup(ctx context.Context, db *gorm.DB, groupID, productID snowflake.ID) error
	UnassignGroup(ctx context.Context, db *gorm.DB, groupID, productID snowflake.ID) error

	ListValues(ctx context.Context, db *gorm.DB, productID snowflake.ID, valueType ValueType) ([]ProductPropertyValue, error)
	ReplaceValues(ctx context.Context, db *gorm.DB, productID, propertyID snowflake.ID, valueType ValueType, values []ProductPropertyValue) error
	DeleteValuesForProperties(ctx context.Context, db *gorm.DB, productID snowflake.ID, propertyIDs []snowflake.ID) error
}
