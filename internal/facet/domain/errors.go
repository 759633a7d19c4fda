package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrCategoryNotFound = errors.New("category_not_found")
	ErrProductNotFound  = errors.New("product_not_found")
)
