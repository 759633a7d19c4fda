package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	"github.com/smallbiznis/storefront/pkg/repository"
	"gorm.io/gorm"
)

type taxRepository struct {
	store repository.Repository[taxdomain.Tax]
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &taxRepository{store: repository.ProvideStore[taxdomain.Tax](db)}
}

func (r *taxRepository) FindByID(ctx context.Context, id snowflake.ID) (*taxdomain.Tax, error) {
	if id == 0 {
		return nil, nil
	}
	return r.store.FindOne(ctx, &taxdomain.Tax{ID: id})
}

func (r *taxRepository) Create(ctx context.Context, tax *taxdomain.Tax) error {
	if err := tax.Validate(); err != nil {
		return err
	}
	return r.store.Create(ctx, tax)
}
