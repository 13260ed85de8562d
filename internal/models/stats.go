package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepotStats is the derived valuation of one depot. Computed on demand from
// the holding ledger; never stored.
type DepotStats struct {
	DepotID        string          `json:"depot_id"`
	DepotName      string          `json:"depot_name"`
	CashBalance    decimal.Decimal `json:"cash_balance"`
	Invested       decimal.Decimal `json:"invested"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	UnrealizedGain decimal.Decimal `json:"unrealized_gain"`
	RealizedGain   decimal.Decimal `json:"realized_gain"`
	TotalValue     decimal.Decimal `json:"total_value"`
	GainPct        decimal.Decimal `json:"gain_pct"`
	HoldingCount   int             `json:"holding_count"`
}

// TimelinePoint is one transaction event in a cumulative-gain series.
// CumulativeGain advances only on SELL rows.
type TimelinePoint struct {
	Date           time.Time       `json:"date"`
	Type           TransactionType `json:"type"`
	Name           string          `json:"name"`
	Symbol         string          `json:"symbol"`
	DepotName      string          `json:"depot,omitempty"`
	Shares         decimal.Decimal `json:"shares"`
	Price          decimal.Decimal `json:"price"`
	GainLoss       decimal.Decimal `json:"gain_loss"`
	CumulativeGain decimal.Decimal `json:"cumulative_gain"`
}

// TradeHistoryEntry is a transaction joined with its holding's details,
// for the depot history view.
type TradeHistoryEntry struct {
	Transaction
	Name        string          `json:"name"`
	Symbol      string          `json:"symbol"`
	AvgBuyPrice decimal.Decimal `json:"avg_buy_price"`
	Category    string          `json:"category"`
}
