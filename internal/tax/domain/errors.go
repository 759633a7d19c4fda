package domain

import "errors"

var (
	ErrInvalidTaxRate = errors.New("invalid_tax_rate")
	// ErrDanglingTax marks a product whose tax reference points nowhere.
	ErrDanglingTax = errors.New("dangling_tax_reference")
)
