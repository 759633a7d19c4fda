package domain

import "errors"

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
	ErrCategoryNotFound = errors.New("category_not_found")
	ErrInvalidValueType = errors.New("invalid_value_type")
	ErrInvalidProperty  = errors.New("invalid_property")
	ErrInvalidGroup     = errors.New("invalid_property_group")
)
