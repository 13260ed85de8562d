package interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/models"
)

// BuyOrder describes a buy against a depot. Timestamp may be zero, in which
// case the engine stamps the current time.
type BuyOrder struct {
	DepotID   string
	Symbol    string
	Name      string
	Category  string
	Shares    decimal.Decimal
	Price     decimal.Decimal
	Timestamp time.Time
}

// SellOrder describes a sell against an existing holding.
type SellOrder struct {
	HoldingID string
	Shares    decimal.Decimal
	Price     decimal.Decimal
	Timestamp time.Time
}

// SellResult reports the outcome of a sell.
type SellResult struct {
	Holding      *models.Holding     `json:"holding"`
	Transaction  *models.Transaction `json:"transaction"`
	RealizedGain decimal.Decimal     `json:"realized_gain"`
}

// TradingService is the transaction engine: it applies buys and sells,
// reverses deleted transactions, and keeps holding aggregates consistent
// with the transaction log. Every mutation runs in one atomic store
// transaction with the holding row locked.
type TradingService interface {
	Buy(ctx context.Context, userID string, order BuyOrder) (*models.Holding, *models.Transaction, error)
	Sell(ctx context.Context, userID string, order SellOrder) (*SellResult, error)
	// DeleteTransaction reverses a transaction's effect on current shares
	// and removes it from the log. Fails with NegativeSharesError when
	// deleting a BUY that later sells depended on.
	DeleteTransaction(ctx context.Context, userID, transactionID string) (*models.Holding, error)
	// RebuildHolding re-derives a holding's aggregates by replaying its
	// transaction log. Repair utility; the hot path updates incrementally.
	RebuildHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error)
	// RefreshPrice fetches a quote for the holding's symbol and overwrites
	// its market price.
	RefreshPrice(ctx context.Context, userID, holdingID string) (*models.Holding, error)
	// RefreshDepotPrices refreshes market prices for all open holdings of a
	// depot. Per-symbol quote failures are skipped, never fatal.
	RefreshDepotPrices(ctx context.Context, userID, depotID string) ([]models.Holding, error)
}

// ImportService reconciles bulk broker exports into depot state.
type ImportService interface {
	ImportBrokerTransactions(ctx context.Context, userID, depotID string, rows []models.BrokerRow, mode models.ImportMode) (*models.ImportResult, error)
}

// ResolvedSecurity is the outcome of an ISIN lookup.
type ResolvedSecurity struct {
	Symbol string
	Name   string
}

// IsinService manages the per-user ISIN resolution table.
type IsinService interface {
	// Resolve looks up the trading symbol for an ISIN. Returns
	// (nil, nil) when the ISIN has a mapping without a symbol, and
	// NotFoundError when no mapping exists at all.
	Resolve(ctx context.Context, userID, isin string) (*ResolvedSecurity, error)
	Create(ctx context.Context, userID, isin, symbol, name string) (*models.IsinMapping, error)
	// Update patches symbol and/or name; nil fields are left unchanged.
	Update(ctx context.Context, userID, id string, symbol, name *string) (*models.IsinMapping, error)
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, isin string) (*models.IsinMapping, error)
	List(ctx context.Context, userID string) ([]models.IsinMapping, error)
	// ResyncHoldings pushes symbol/name from every resolved mapping onto
	// the user's holdings sharing that ISIN. Explicit bulk fix-up; mapping
	// edits never trigger it automatically.
	ResyncHoldings(ctx context.Context, userID string) (int, error)
}

// StatsService derives valuations and gain series from the ledger and
// transaction log. Read-only.
type StatsService interface {
	DepotStats(ctx context.Context, userID, depotID string) (*models.DepotStats, error)
	DepotTimeline(ctx context.Context, userID, depotID string) ([]models.TimelinePoint, error)
	UserTimeline(ctx context.Context, userID string) ([]models.TimelinePoint, error)
	DepotHistory(ctx context.Context, userID, depotID string) ([]models.TradeHistoryEntry, error)
}

// DepotService manages depots and direct holding CRUD.
type DepotService interface {
	CreateDepot(ctx context.Context, userID, name string, cashBalance decimal.Decimal) (*models.Depot, error)
	GetDepot(ctx context.Context, userID, depotID string) (*models.Depot, error)
	ListDepots(ctx context.Context, userID string) ([]models.Depot, error)
	UpdateDepot(ctx context.Context, userID, depotID string, name *string, cashBalance *decimal.Decimal) (*models.Depot, error)
	DeleteDepot(ctx context.Context, userID, depotID string) error
	ClearDepot(ctx context.Context, userID, depotID string) (int64, error)

	GetHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error)
	ListHoldings(ctx context.Context, userID, depotID string) ([]models.Holding, error)
	ListAllHoldings(ctx context.Context, userID string) ([]models.Holding, error)
	DeleteHolding(ctx context.Context, userID, holdingID string) error
	ListTransactions(ctx context.Context, userID, holdingID string) ([]models.Transaction, error)
}
