// Package ledger implements the pure position arithmetic shared by the
// trading and import paths. Functions mutate holding aggregates in place;
// persistence and locking are the caller's concern.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/models"
)

// ValidateOrder rejects non-positive share counts and prices before any
// position math runs.
func ValidateOrder(shares, price decimal.Decimal) error {
	if !shares.IsPositive() {
		return &models.ValidationError{Field: "shares", Reason: "must be greater than zero"}
	}
	if !price.IsPositive() {
		return &models.ValidationError{Field: "price", Reason: "must be greater than zero"}
	}
	return nil
}

// ApplyBuy folds a buy into the holding: both share counters grow and
// AvgBuyPrice becomes the weighted average over all shares ever bought.
// MarketPrice follows the trade price until a quote refresh overwrites it.
func ApplyBuy(h *models.Holding, shares, price decimal.Decimal) {
	invested := h.TotalShares.Mul(h.AvgBuyPrice).Add(shares.Mul(price))
	h.TotalShares = h.TotalShares.Add(shares)
	h.CurrentShares = h.CurrentShares.Add(shares)
	h.AvgBuyPrice = invested.Div(h.TotalShares)
	h.MarketPrice = price
	h.RefreshState()
}

// ApplySell folds a sell into the holding and returns the realized gain
// against the current average buy price. The cost basis per share is
// untouched: sells only reduce CurrentShares and move MarketPrice to the
// trade price. Selling the whole position closes it; selling more than held
// fails without mutating the holding.
func ApplySell(h *models.Holding, shares, price decimal.Decimal) (decimal.Decimal, error) {
	if shares.GreaterThan(h.CurrentShares) {
		return decimal.Zero, &models.InsufficientSharesError{
			Available: h.CurrentShares,
			Requested: shares,
		}
	}
	h.CurrentShares = h.CurrentShares.Sub(shares)
	h.MarketPrice = price
	h.RefreshState()
	return price.Sub(h.AvgBuyPrice).Mul(shares), nil
}

// Reverse undoes a transaction's effect on the share counters. AvgBuyPrice
// is deliberately left alone; RebuildHolding exists for full re-derivation.
// Reversing a buy that later sells depended on fails with
// NegativeSharesError, leaving the holding untouched.
func Reverse(h *models.Holding, tx *models.Transaction) error {
	switch tx.Type {
	case models.TransactionBuy:
		if tx.Shares.GreaterThan(h.CurrentShares) {
			return &models.NegativeSharesError{Current: h.CurrentShares, Delta: tx.Shares}
		}
		h.CurrentShares = h.CurrentShares.Sub(tx.Shares)
		h.TotalShares = h.TotalShares.Sub(tx.Shares)
	case models.TransactionSell:
		h.CurrentShares = h.CurrentShares.Add(tx.Shares)
	default:
		return &models.ValidationError{Field: "type", Reason: "unknown transaction type"}
	}
	h.RefreshState()
	return nil
}

// Replay resets the holding's aggregates and re-derives them from its
// transaction log, which must be in timestamp order. Fails when the log is
// inconsistent, e.g. a sell exceeding the position at its point in time.
func Replay(h *models.Holding, txs []models.Transaction) error {
	h.TotalShares = decimal.Zero
	h.CurrentShares = decimal.Zero
	h.AvgBuyPrice = decimal.Zero

	for i := range txs {
		tx := &txs[i]
		switch tx.Type {
		case models.TransactionBuy:
			ApplyBuy(h, tx.Shares, tx.Price)
		case models.TransactionSell:
			if _, err := ApplySell(h, tx.Shares, tx.Price); err != nil {
				return err
			}
		default:
			return &models.ValidationError{Field: "type", Reason: "unknown transaction type"}
		}
	}
	h.RefreshState()
	return nil
}
