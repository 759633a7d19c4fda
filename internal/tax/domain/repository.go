package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	FindByID(ctx context.Context, id snowflake.ID) (*Tax, error)
	Create(ctx context.Context, tax *Tax) error
}
