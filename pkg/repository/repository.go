package repository

import (
	"context"

	"github.com/smallbiznis/storefront/pkg/db/option"
)

// Repository is a generic gorm-backed store for simple lookup tables.
// FindOne returns nil, nil when nothing matches.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
	BatchCreate(ctx context.Context, resources []*T) error
}
