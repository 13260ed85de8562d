// Package depot manages depots and direct holding access.
package depot

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
)

// Service implements DepotService.
type Service struct {
	store  interfaces.Store
	logger *common.Logger
}

// NewService creates a new depot service.
func NewService(store interfaces.Store, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreateDepot creates a depot for the user. CashBalance may be negative;
// it is an externally-managed anchor value, not a derived ledger.
func (s *Service) CreateDepot(ctx context.Context, userID, name string, cashBalance decimal.Decimal) (*models.Depot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &models.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	depot := &models.Depot{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		CashBalance: cashBalance,
	}
	if err := s.store.Depots().Create(ctx, depot); err != nil {
		return nil, err
	}

	s.logger.Info().Str("depot", depot.ID).Str("name", name).Msg("Depot created")
	return depot, nil
}

// GetDepot returns a depot owned by the user.
func (s *Service) GetDepot(ctx context.Context, userID, depotID string) (*models.Depot, error) {
	return s.store.Depots().GetOwned(ctx, depotID, userID)
}

// ListDepots returns all depots of the user, newest first.
func (s *Service) ListDepots(ctx context.Context, userID string) ([]models.Depot, error) {
	return s.store.Depots().ListByUser(ctx, userID)
}

// UpdateDepot patches name and/or cash balance. Nil fields stay untouched.
func (s *Service) UpdateDepot(ctx context.Context, userID, depotID string, name *string, cashBalance *decimal.Decimal) (*models.Depot, error) {
	depot, err := s.store.Depots().GetOwned(ctx, depotID, userID)
	if err != nil {
		return nil, err
	}

	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, &models.ValidationError{Field: "name", Reason: "must not be empty"}
		}
		depot.Name = trimmed
	}
	if cashBalance != nil {
		depot.CashBalance = *cashBalance
	}

	if err := s.store.Depots().Update(ctx, depot); err != nil {
		return nil, err
	}
	return depot, nil
}

// DeleteDepot removes a depot with all its holdings and transactions.
func (s *Service) DeleteDepot(ctx context.Context, userID, depotID string) error {
	return s.store.Transaction(ctx, func(tx interfaces.Store) error {
		if _, err := tx.Depots().GetOwned(ctx, depotID, userID); err != nil {
			return err
		}
		return tx.Depots().Delete(ctx, depotID)
	})
}

// ClearDepot removes all holdings and transactions of a depot, keeping the
// depot and its cash balance. Returns the number of holdings removed.
func (s *Service) ClearDepot(ctx context.Context, userID, depotID string) (int64, error) {
	var removed int64
	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		if _, err := tx.Depots().GetOwned(ctx, depotID, userID); err != nil {
			return err
		}
		var err error
		removed, err = tx.Depots().Clear(ctx, depotID)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("depot", depotID).Int64("holdings", removed).Msg("Depot cleared")
	return removed, nil
}

// GetHolding returns a holding owned, via its depot, by the user.
func (s *Service) GetHolding(ctx context.Context, userID, holdingID string) (*models.Holding, error) {
	return s.ownedHolding(ctx, userID, holdingID)
}

// ListHoldings returns the holdings of one depot.
func (s *Service) ListHoldings(ctx context.Context, userID, depotID string) ([]models.Holding, error) {
	if _, err := s.store.Depots().GetOwned(ctx, depotID, userID); err != nil {
		return nil, err
	}
	return s.store.Holdings().ListByDepot(ctx, depotID)
}

// ListAllHoldings returns every holding across the user's depots.
func (s *Service) ListAllHoldings(ctx context.Context, userID string) ([]models.Holding, error) {
	return s.store.Holdings().ListByUser(ctx, userID)
}

// DeleteHolding removes a holding and its full transaction history.
func (s *Service) DeleteHolding(ctx context.Context, userID, holdingID string) error {
	return s.store.Transaction(ctx, func(tx interfaces.Store) error {
		holding, err := tx.Holdings().Get(ctx, holdingID)
		if err != nil {
			return err
		}
		if _, err := tx.Depots().GetOwned(ctx, holding.DepotID, userID); err != nil {
			return &models.NotFoundError{Resource: "holding", ID: holdingID}
		}
		return tx.Holdings().Delete(ctx, holdingID)
	})
}

// ListTransactions returns a holding's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID, holdingID string) ([]models.Transaction, error) {
	if _, err := s.ownedHolding(ctx, userID, holdingID); err != nil {
		return nil, err
	}
	return s.store.Transactions().ListByHolding(ctx, holdingID)
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
