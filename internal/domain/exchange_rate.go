package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate converts one unit of QuoteCurrency into BaseCurrency.
type ExchangeRate struct {
	ID            string
	BaseCurrency  string
	QuoteCurrency string
	Rate          decimal.Decimal
	EffectiveAt   time.Time
	CreatedAt     time.Time
}
