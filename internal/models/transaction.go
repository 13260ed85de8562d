package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is BUY or SELL. There is no "edit"; corrections are
// delete + re-create.
type TransactionType string

const (
	TransactionBuy  TransactionType = "BUY"
	TransactionSell TransactionType = "SELL"
)

// Transaction is one buy or sell fill against a holding. The transaction
// log is the append-only source of truth; holding aggregates are a cache
// derived from it.
type Transaction struct {
	ID        string          `json:"id" gorm:"primaryKey;size:36"`
	HoldingID string          `json:"holding_id" gorm:"index;size:36;not null"`
	Type      TransactionType `json:"type" gorm:"size:4;not null"`
	Shares    decimal.Decimal `json:"shares" gorm:"type:decimal(20,8);not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(20,8);not null"`
	Timestamp time.Time       `json:"timestamp" gorm:"index;not null"`
	CreatedAt time.Time       `json:"created_at"`
}
