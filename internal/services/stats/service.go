// Package stats derives valuations and gain series from the holding ledger
// and transaction log. Everything here is computed on demand; nothing is
// stored.
package stats

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Service implements StatsService.
type Service struct {
	store  interfaces.Store
	logger *common.Logger
}

// NewService creates a new statistics service.
func NewService(store interfaces.Store, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// DepotStats computes the derived valuation of one depot. Invested and
// current value cover open positions only; realized gain covers every sell
// ever recorded, closed positions included.
func (s *Service) DepotStats(ctx context.Context, userID, depotID string) (*models.DepotStats, error) {
	depot, err := s.store.Depots().GetOwned(ctx, depotID, userID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.Holdings().ListByDepot(ctx, depotID)
	if err != nil {
		return nil, err
	}

	stats := &models.DepotStats{
		DepotID:     depot.ID,
		DepotName:   depot.Name,
		CashBalance: depot.CashBalance,
	}

	byID := make(map[string]*models.Holding, len(holdings))
	holdingIDs := make([]string, 0, len(holdings))
	for i := range holdings {
		holding := &holdings[i]
		byID[holding.ID] = holding
		holdingIDs = append(holdingIDs, holding.ID)

		if holding.State == models.PositionOpen {
			stats.Invested = stats.Invested.Add(holding.CostBasis())
			stats.CurrentValue = stats.CurrentValue.Add(holding.MarketValue())
			stats.HoldingCount++
		}
	}

	txs, err := s.store.Transactions().ListByHoldingIDs(ctx, holdingIDs)
	if err != nil {
		return nil, err
	}
	for i := range txs {
		tx := &txs[i]
		if tx.Type != models.TransactionSell {
			continue
		}
		holding := byID[tx.HoldingID]
		if holding == nil {
			continue
		}
		stats.RealizedGain = stats.RealizedGain.Add(sellGain(tx, holding))
	}

	stats.UnrealizedGain = stats.CurrentValue.Sub(stats.Invested)
	stats.TotalValue = depot.CashBalance.Add(stats.CurrentValue)
	if stats.Invested.IsPositive() {
		stats.GainPct = stats.UnrealizedGain.Div(stats.Invested).Mul(hundred)
	}
	return stats, nil
}

// DepotTimeline returns every transaction of a depot as a chronological
// event series with a running realized-gain total.
func (s *Service) DepotTimeline(ctx context.Context, userID, depotID string) ([]models.TimelinePoint, error) {
	depot, err := s.store.Depots().GetOwned(ctx, depotID, userID)
	if err != nil {
		return nil, err
	}

	holdings, err := s.store.Holdings().ListByDepot(ctx, depotID)
	if err != nil {
		return nil, err
	}
	return s.timeline(ctx, map[string]string{depot.ID: depot.Name}, holdings)
}

// UserTimeline merges the transaction series of all the user's depots into
// one chronological stream, each point tagged with its depot name.
func (s *Service) UserTimeline(ctx context.Context, userID string) ([]models.TimelinePoint, error) {
	depots, err := s.store.Depots().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	depotNames := make(map[string]string, len(depots))
	for _, depot := range depots {
		depotNames[depot.ID] = depot.Name
	}

	holdings, err := s.store.Holdings().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.timeline(ctx, depotNames, holdings)
}

func (s *Service) timeline(ctx context.Context, depotNames map[string]string, holdings []models.Holding) ([]models.TimelinePoint, error) {
	byID := make(map[string]*models.Holding, len(holdings))
	holdingIDs := make([]string, 0, len(holdings))
	for i := range holdings {
		byID[holdings[i].ID] = &holdings[i]
		holdingIDs = append(holdingIDs, holdings[i].ID)
	}

	txs, err := s.store.Transactions().ListByHoldingIDs(ctx, holdingIDs)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.Before(txs[j].Timestamp) })

	points := make([]models.TimelinePoint, 0, len(txs))
	cumulative := decimal.Zero
	for i := range txs {
		tx := &txs[i]
		holding := byID[tx.HoldingID]
		if holding == nil {
			continue
		}

		point := models.TimelinePoint{
			Date:      tx.Timestamp,
			Type:      tx.Type,
			Name:      holding.Name,
			Symbol:    holding.Symbol,
			DepotName: depotNames[holding.DepotID],
			Shares:    tx.Shares,
			Price:     tx.Price,
		}
		if tx.Type == models.TransactionSell {
			point.GainLoss = sellGain(tx, holding)
			cumulative = cumulative.Add(point.GainLoss)
		}
		point.CumulativeGain = cumulative
		points = append(points, point)
	}
	return points, nil
}

// DepotHistory returns a depot's transactions newest-first, joined with
// their holding's details.
func (s *Service) DepotHistory(ctx context.Context, userID, depotID string) ([]models.TradeHistoryEntry, error) {
	if _, err := s.store.Depots().GetOwned(ctx, depotID, userID); err != nil {
		return nil, err
	}

	holdings, err := s.store.Holdings().ListByDepot(ctx, depotID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Holding, len(holdings))
	holdingIDs := make([]string, 0, len(holdings))
	for i := range holdings {
		byID[holdings[i].ID] = &holdings[i]
		holdingIDs = append(holdingIDs, holdings[i].ID)
	}

	txs, err := s.store.Transactions().ListByHoldingIDs(ctx, holdingIDs)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Timestamp.After(txs[j].Timestamp) })

	entries := make([]models.TradeHistoryEntry, 0, len(txs))
	for i := range txs {
		holding := byID[txs[i].HoldingID]
		if holding == nil {
			continue
		}
		entries = append(entries, models.TradeHistoryEntry{
			Transaction: txs[i],
			Name:        holding.Name,
			Symbol:      holding.Symbol,
			AvgBuyPrice: holding.AvgBuyPrice,
			Category:    holding.Category,
		})
	}
	return entries, nil
}

// sellGain values a sell against the holding's current average buy price,
// not the average at execution time.
func sellGain(tx *models.Transaction, holding *models.Holding) decimal.Decimal {
	return tx.Price.Sub(holding.AvgBuyPrice).Mul(tx.Shares)
}
