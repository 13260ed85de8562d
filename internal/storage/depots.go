package storage

import (
	"context"

	"github.com/depotd/depotd/internal/models"
)

type depotStore struct {
	*GormStore
}

func (s *depotStore) Create(ctx context.Context, depot *models.Depot) error {
	return translateErr(s.db.WithContext(ctx).Create(depot).Error, "depot", depot.ID)
}

func (s *depotStore) GetOwned(ctx context.Context, id, userID string) (*models.Depot, error) {
	var depot models.Depot
	err := s.db.WithContext(ctx).First(&depot, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, translateErr(err, "depot", id)
	}
	return &depot, nil
}

func (s *depotStore) ListByUser(ctx context.Context, userID string) ([]models.Depot, error) {
	var depots []models.Depot
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&depots).Error
	if err != nil {
		return nil, translateErr(err, "depots", "")
	}
	return depots, nil
}

func (s *depotStore) Update(ctx context.Context, depot *models.Depot) error {
	return translateErr(s.db.WithContext(ctx).Save(depot).Error, "depot", depot.ID)
}

// Delete removes the depot and cascades to its holdings and transactions.
func (s *depotStore) Delete(ctx context.Context, id string) error {
	if _, err := s.Clear(ctx, id); err != nil {
		return err
	}
	return translateErr(
		s.db.WithContext(ctx).Delete(&models.Depot{}, "id = ?", id).Error,
		"depot", id)
}

// Clear removes all holdings and transactions of a depot, keeping the depot
// itself. Returns the number of holdings removed.
func (s *depotStore) Clear(ctx context.Context, id string) (int64, error) {
	db := s.db.WithContext(ctx)

	holdingIDs := db.Model(&models.Holding{}).Select("id").Where("depot_id = ?", id)
	if err := db.Where("holding_id IN (?)", holdingIDs).Delete(&models.Transaction{}).Error; err != nil {
		return 0, translateErr(err, "transactions", "")
	}

	res := db.Where("depot_id = ?", id).Delete(&models.Holding{})
	if res.Error != nil {
		return 0, translateErr(res.Error, "holdings", "")
	}
	return res.RowsAffected, nil
}
