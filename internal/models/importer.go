package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ImportMode controls how a bulk broker import interacts with existing
// depot state.
type ImportMode string

const (
	// ImportModeReplace wipes existing transactions and holdings for every
	// ISIN present in the input before rebuilding them, making re-import of
	// a corrected export idempotent.
	ImportModeReplace ImportMode = "replace"
	// ImportModeAdd folds the input rows into existing positions.
	ImportModeAdd ImportMode = "add"
)

// BrokerRow is one structured row from a broker export. CSV parsing happens
// upstream; the import engine only sees these.
type BrokerRow struct {
	ISIN      string          `json:"isin"`
	Name      string          `json:"name"`
	Shares    decimal.Decimal `json:"shares"`
	Price     decimal.Decimal `json:"price"`
	Type      TransactionType `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
}

// ImportRowError is an actionable per-security error collected during an
// import. NeedsMapping entries point the user at the ISIN table.
type ImportRowError struct {
	ISIN         string `json:"isin"`
	Name         string `json:"name,omitempty"`
	Reason       string `json:"reason"`
	NeedsMapping bool   `json:"needs_mapping"`
}

// ImportResult is the mixed success/error outcome of a bulk import. The
// import always completes; unmappable or broken groups land in Errors
// while the rest of the file is persisted.
type ImportResult struct {
	Holdings []Holding        `json:"imported_holdings"`
	RowsSeen int              `json:"total_rows_seen"`
	Errors   []ImportRowError `json:"errors"`
}
