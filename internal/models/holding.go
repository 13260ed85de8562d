package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionState tags whether a holding still has shares. A fully-sold
// holding stays Closed rather than deleted, preserving transaction history
// attribution.
type PositionState string

const (
	PositionOpen   PositionState = "open"
	PositionClosed PositionState = "closed"
)

// Holding is the aggregate position per (depot, symbol). It is a
// materialized cache over the holding's transaction log: CurrentShares,
// TotalShares, and AvgBuyPrice must always be re-derivable by replaying
// the transactions in timestamp order.
type Holding struct {
	ID      string `json:"id" gorm:"primaryKey;size:36"`
	DepotID string `json:"depot_id" gorm:"size:36;not null;uniqueIndex:idx_depot_symbol"`
	Name    string `json:"name" gorm:"size:255;not null"`
	Symbol  string `json:"symbol" gorm:"size:32;not null;uniqueIndex:idx_depot_symbol"`
	ISIN    string `json:"isin,omitempty" gorm:"size:12;index"`

	// TotalShares is the cumulative count of all shares ever bought;
	// CurrentShares never exceeds it and never goes negative.
	TotalShares   decimal.Decimal `json:"total_shares" gorm:"type:decimal(20,8);not null"`
	CurrentShares decimal.Decimal `json:"current_shares" gorm:"type:decimal(20,8);not null"`

	// AvgBuyPrice is the weighted-average cost over all shares ever bought
	// (total invested / total bought). Sells reduce CurrentShares only;
	// cost basis is untouched.
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price" gorm:"type:decimal(20,8);not null"`
	MarketPrice decimal.Decimal `json:"market_price" gorm:"type:decimal(20,8);not null"`

	Category  string        `json:"category" gorm:"size:64"`
	State     PositionState `json:"state" gorm:"size:8;not null"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RefreshState recomputes the Open/Closed tag from CurrentShares.
func (h *Holding) RefreshState() {
	if h.CurrentShares.IsPositive() {
		h.State = PositionOpen
	} else {
		h.State = PositionClosed
	}
}

// CostBasis returns CurrentShares * AvgBuyPrice.
func (h *Holding) CostBasis() decimal.Decimal {
	return h.CurrentShares.Mul(h.AvgBuyPrice)
}

// MarketValue returns CurrentShares * MarketPrice.
func (h *Holding) MarketValue() decimal.Decimal {
	return h.CurrentShares.Mul(h.MarketPrice)
}
