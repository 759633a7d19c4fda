package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
	ErrUnknownCalculator = errors.New("unknown_price_calculator")
)
