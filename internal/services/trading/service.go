// Package trading implements the transaction engine: buys, sells,
// transaction deletion, and market-price refresh.
package trading

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
	"github.com/depotd/depotd/internal/services/ledger"
)

// Service implements TradingService. Every mutation runs inside one store
// transaction with the holding row locked, so concurrent orders against the
// same holding serialize.
type Service struct {
	store  interfaces.Store
	quotes interfaces.QuoteClient
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

// NewService creates a new trading service. quotes may be nil; price
// refresh then fails with QuoteUnavailableError.
func NewService(store interfaces.Store, quotes interfaces.QuoteClient, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		quotes: quotes,
		logger: logger,
		now:    time.Now,
	}
}

// Buy applies a buy order. A first buy for a (depot, symbol) pair creates
// the holding; later buys fold into it at weighted-average cost. Buying
// into a closed position reopens it.
func (s *Service) Buy(ctx context.Context, userID string, order interfaces.BuyOrder) (*models.Holding, *models.Transaction, error) {
	symbol := strings.ToUpper(strings.TrimSpace(order.Symbol))
	if symbol == "" {
		return nil, nil, &models.ValidationError{Field: "symbol", Reason: "must not be empty"}
	}
	if err := ledger.ValidateOrder(order.Shares, order.Price); err != nil {
		return nil, nil, err
	}

	timestamp := order.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	var holding *models.Holding
	var transaction *models.Transaction
	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		if _, err := tx.Depots().GetOwned(ctx, order.DepotID, userID); err != nil {
			return err
		}

		existing, err := tx.Holdings().GetByDepotAndSymbol(ctx, order.DepotID, symbol, true)
		switch {
		case err == nil:
			holding = existing
		case models.IsNotFound(err):
			name := strings.TrimSpace(order.Name)
			if name == "" {
				name = symbol
			}
			holding = &models.Holding{
				ID:       uuid.New().String(),
				DepotID:  order.DepotID,
				Name:     name,
				Symbol:   symbol,
				Category: order.Category,
				State:    models.PositionClosed,
			}
			if err := tx.Holdings().Create(ctx, holding); err != nil {
				return err
			}
		default:
			return err
		}

		ledger.ApplyBuy(holding, order.Shares, order.Price)

		transaction = &models.Transaction{
			ID:        uuid.New().String(),
			HoldingID: holding.ID,
			Type:      models.TransactionBuy,
			Shares:    order.Shares,
			Price:     order.Price,
			Timestamp: timestamp,
		}
		if err := tx.Transactions().Create(ctx, transaction); err != nil {
			return err
		}
		return tx.Holdings().Update(ctx, holding)
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info().
		Str("holding", holding.ID).
		Str("symbol", symbol).
		Str("shares", order.Shares.String()).
		Str("avg_buy_price", holding.AvgBuyPrice.String()).
		Msg("Buy applied")
	return holding, transaction, nil
}

// Sell applies a sell order against an existing holding. Selling the whole
// position closes it but keeps the holding and its history. Selling more
// than held fails with InsufficientSharesError.
func (s *Service) Sell(ctx context.Context, userID string, order interfaces.SellOrder) (*interfaces.SellResult, error) {
	if err := ledger.ValidateOrder(order.Shares, order.Price); err != nil {
		return nil, err
	}

	timestamp := order.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	var result interfaces.SellResult
	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		holding, err := s.ownedHoldingForUpdate(ctx, tx, userID, order.HoldingID)
		if err != nil {
			return err
		}

		gain, err := ledger.ApplySell(holding, order.Shares, order.Price)
		if err != nil {
			return err
		}

		transaction := &models.Transaction{
			ID:        uuid.New().String(),
			HoldingID: holding.ID,
			Type:      models.TransactionSell,
			Shares:    order.Shares,
			Price:     order.Price,
			Timestamp: timestamp,
		}
		if err := tx.Transactions().Create(ctx, transaction); err != nil {
			return err
		}
		if err := tx.Holdings().Update(ctx, holding); err != nil {
			return err
		}

		result = interfaces.SellResult{Holding: holding, Transaction: transaction, RealizedGain: gain}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("holding", result.Holding.ID).
		Str("shares", order.Shares.String()).
		Str("realized_gain", result.RealizedGain.String()).
		Msg("Sell applied")
	return &result, nil
}

// DeleteTransaction removes a transaction from the log and reverses its
// effect on the holding's share counters. Deleting a buy that later sells
// depended on fails with NegativeSharesError and leaves everything intact.
func (s *Service) DeleteTransaction(ctx context.Context, userID, transactionID string) (*models.Holding, error) {
	var holding *models.Holding
	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		transaction, err := tx.Transactions().Get(ctx, transactionID)
		if err != nil {
			return err
		}

		holding, err = s.ownedHoldingForUpdate(ctx, tx, userID, transaction.HoldingID)
		if err != nil {
			return err
		}

		if err := ledger.Reverse(holding, transaction); err != nil {
			return err
		}
		if err := tx.Transactions().Delete(ctx, transactionID); err != nil {
			return err
		}
		return tx.Holdings().Update(ctx, holding)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("transaction", transactionID).Str("holding", holding.ID).Msg("Transaction deleted")
	return holding, nil
}

// RebuildHolding re-derives a holding's aggregates by replaying its
// transaction log in timestamp order.
func (s *Service) RebuildHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error) {
	var holding *models.Holding
	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		var err error
		holding, err = s.ownedHoldingForUpdate(ctx, tx, userID, holdingID)
		if err != nil {
			return err
		}

		txs, err := tx.Transactions().ListByHoldingAsc(ctx, holdingID)
		if err != nil {
			return err
		}
		if err := ledger.Replay(holding, txs); err != nil {
			return err
		}
		return tx.Holdings().Update(ctx, holding)
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

// RefreshPrice fetches a quote for the holding's symbol and overwrites its
// market price.
func (s *Service) RefreshPrice(ctx context.Context, userID, holdingID string) (*models.Holding, error) {
	holding, err := s.ownedHolding(ctx, userID, holdingID)
	if err != nil {
		return nil, err
	}

	quote, err := s.fetchQuote(ctx, holding.Symbol)
	if err != nil {
		return nil, err
	}

	holding.MarketPrice = quote.Price
	if err := s.store.Holdings().Update(ctx, holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// RefreshDepotPrices refreshes market prices for all open holdings of a
// depot. Per-symbol quote failures are logged and skipped.
func (s *Service) RefreshDepotPrices(ctx context.Context, userID, depotID string) ([]models.Holding, error) {
	if _, err := s.store.Depots().GetOwned(ctx, depotID, userID); err != nil {
		return nil, err
	}

	holdings, err := s.store.Holdings().ListByDepot(ctx, depotID)
	if err != nil {
		return nil, err
	}

	for i := range holdings {
		holding := &holdings[i]
		if holding.State != models.PositionOpen {
			continue
		}

		quote, err := s.fetchQuote(ctx, holding.Symbol)
		if err != nil {
			s.logger.Warn().Str("symbol", holding.Symbol).Err(err).Msg("Skipping price refresh")
			continue
		}

		holding.MarketPrice = quote.Price
		if err := s.store.Holdings().Update(ctx, holding); err != nil {
			return nil, err
		}
	}
	return holdings, nil
}

func (s *Service) fetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if s.quotes == nil {
		return nil, &models.QuoteUnavailableError{Symbol: symbol, Err: errors.New("no quote client configured")}
	}
	return s.quotes.FetchQuote(ctx, symbol)
}

// ownedHoldingForUpdate loads a holding with its row locked and verifies,
// via its depot, that it belongs to the caller.
func (s *Service) ownedHoldingForUpdate(ctx context.Context, tx interfaces.Store, userID, holdingID string) (*models.Holding, error) {
	holding, err := tx.Holdings().GetForUpdate(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.Depots().GetOwned(ctx, holding.DepotID, userID); err != nil {
		return nil, &models.NotFoundError{Resource: "holding", ID: holdingID}
	}
	return holding, nil
}

func (s *Service) ownedHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error) {
	holding, err := s.store.Holdings().Get(ctx, holdingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Depots().GetOwned(ctx, holding.DepotID, userID); err != nil {
		return nil, &models.NotFoundError{Resource: "holding", ID: holdingID}
	}
	return holding, nil
}
