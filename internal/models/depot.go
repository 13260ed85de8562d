package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Depot is a named brokerage-account container with a cash balance, scoped
// to one user. CashBalance is a user-editable anchor value representing
// externally-deposited capital, not a derived ledger of cash movements.
type Depot struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	UserID      string          `json:"user_id" gorm:"index;size:36;not null"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	CashBalance decimal.Decimal `json:"cash_balance" gorm:"type:decimal(20,8);not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
