package storage

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/depotd/depotd/internal/models"
)

type holdingStore struct {
	*GormStore
}

// locked applies SELECT ... FOR UPDATE on dialects that support it, so a
// holding loaded inside a transaction stays serialized against concurrent
// buys and sells until commit.
func (s *holdingStore) locked(db *gorm.DB) *gorm.DB {
	if s.rowLocks {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func (s *holdingStore) Create(ctx context.Context, holding *models.Holding) error {
	return translateErr(s.db.WithContext(ctx).Create(holding).Error, "holding", holding.ID)
}

func (s *holdingStore) Get(ctx context.Context, id string) (*models.Holding, error) {
	var holding models.Holding
	err := s.db.WithContext(ctx).First(&holding, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err, "holding", id)
	}
	return &holding, nil
}

func (s *holdingStore) GetForUpdate(ctx context.Context, id string) (*models.Holding, error) {
	var holding models.Holding
	err := s.locked(s.db.WithContext(ctx)).First(&holding, "id = ?", id).Error
	if err != nil {
		return nil, translateErr(err, "holding", id)
	}
	return &holding, nil
}

func (s *holdingStore) GetByDepotAndSymbol(ctx context.Context, depotID, symbol string, forUpdate bool) (*models.Holding, error) {
	db := s.db.WithContext(ctx)
	if forUpdate {
		db = s.locked(db)
	}
	var holding models.Holding
	err := db.First(&holding, "depot_id = ? AND symbol = ?", depotID, symbol).Error
	if err != nil {
		return nil, translateErr(err, "holding", symbol)
	}
	return &holding, nil
}

func (s *holdingStore) ListByDepot(ctx context.Context, depotID string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.db.WithContext(ctx).
		Where("depot_id = ?", depotID).
		Order("created_at DESC").
		Find(&holdings).Error
	if err != nil {
		return nil, translateErr(err, "holdings", "")
	}
	return holdings, nil
}

func (s *holdingStore) ListByUser(ctx context.Context, userID string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.db.WithContext(ctx).
		Where("depot_id IN (?)", s.userDepotIDs(userID)).
		Order("created_at DESC").
		Find(&holdings).Error
	if err != nil {
		return nil, translateErr(err, "holdings", "")
	}
	return holdings, nil
}

func (s *holdingStore) ListByUserAndISIN(ctx context.Context, userID, isin string) ([]models.Holding, error) {
	var holdings []models.Holding
	err := s.db.WithContext(ctx).
		Where("isin = ? AND depot_id IN (?)", isin, s.userDepotIDs(userID)).
		Find(&holdings).Error
	if err != nil {
		return nil, translateErr(err, "holdings", "")
	}
	return holdings, nil
}

func (s *holdingStore) userDepotIDs(userID string) *gorm.DB {
	return s.db.Model(&models.Depot{}).Select("id").Where("user_id = ?", userID)
}

func (s *holdingStore) Update(ctx context.Context, holding *models.Holding) error {
	return translateErr(s.db.WithContext(ctx).Save(holding).Error, "holding", holding.ID)
}

// Delete removes the holding and its transactions.
func (s *holdingStore) Delete(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	if err := db.Where("holding_id = ?", id).Delete(&models.Transaction{}).Error; err != nil {
		return translateErr(err, "transactions", "")
	}
	return translateErr(db.Delete(&models.Holding{}, "id = ?", id).Error, "holding", id)
}

// DeleteByDepotAndISINs removes holdings (and their transactions) of a depot
// whose ISIN is in the given set. Used by replace-mode import for its
// wipe-and-rebuild step.
func (s *holdingStore) DeleteByDepotAndISINs(ctx context.Context, depotID string, isins []string) error {
	if len(isins) == 0 {
		return nil
	}
	db := s.db.WithContext(ctx)

	holdingIDs := db.Model(&models.Holding{}).Select("id").
		Where("depot_id = ? AND isin IN ?", depotID, isins)
	if err := db.Where("holding_id IN (?)", holdingIDs).Delete(&models.Transaction{}).Error; err != nil {
		return translateErr(err, "transactions", "")
	}
	err := db.Where("depot_id = ? AND isin IN ?", depotID, isins).Delete(&models.Holding{}).Error
	return translateErr(err, "holdings", "")
}
