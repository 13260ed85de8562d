package storage

import (
	"context"

	"github.com/depotd/depotd/internal/models"
)

type transactionStore struct {
	*GormStore
}

func (s *transactionStore) Create(ctx context.Context, tx *models.Transaction) error {
	return translateErr(s.db.WithContext(ctx).Create(tx).Error, "transaction", tx.ID)
}

func (s *transactionStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).First(&tx, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err, "transaction", id)
	}
	return &tx, nil
}

func (s *transactionStore) ListByHolding(ctx context.Context, holdingID string) ([]models.Transaction, error) {
	return s.list(ctx, "holding_id = ?", "timestamp DESC", holdingID)
}

func (s *transactionStore) ListByHoldingAsc(ctx context.Context, holdingID string) ([]models.Transaction, error) {
	return s.list(ctx, "holding_id = ?", "timestamp ASC", holdingID)
}

func (s *transactionStore) ListByHoldingIDs(ctx context.Context, holdingIDs []string) ([]models.Transaction, error) {
	if len(holdingIDs) == 0 {
		return nil, nil
	}
	return s.list(ctx, "holding_id IN ?", "timestamp ASC", holdingIDs)
}

func (s *transactionStore) list(ctx context.Context, cond, order string, args ...interface{}) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := s.db.WithContext(ctx).
		Where(cond, args...).
		Order(order).
		Find(&txs).Error
	if err != nil {
		return nil, translateErr(err, "transactions", "")
	}
	return txs, nil
}

func (s *transactionStore) Delete(ctx context.Context, id string) error {
	return translateErr(
		s.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id).Error,
		"transaction", id)
}
