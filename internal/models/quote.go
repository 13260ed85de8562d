package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a market price observation from the quote capability.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	AsOf     time.Time       `json:"as_of"`
}
