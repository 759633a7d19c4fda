package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Tax is a rate in percent, e.g. 19 for 19%.
type Tax struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	Rate        decimal.Decimal `json:"rate" gorm:"type:numeric(6,2);not null;default:0"`
	Description string          `json:"description,omitempty" gorm:"type:text"`
}

func (Tax) TableName() string { return "taxes" }

func (t *Tax) Validate() error {
	if t.Rate.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}
