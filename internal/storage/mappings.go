package storage

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/depotd/depotd/internal/models"
)

type mappingStore struct {
	*GormStore
}

func (s *mappingStore) Create(ctx context.Context, m *models.IsinMapping) error {
	return translateErr(s.db.WithContext(ctx).Create(m).Error, "isin mapping", m.ISIN)
}

func (s *mappingStore) GetOwned(ctx context.Context, id, userID string) (*models.IsinMapping, error) {
	var m models.IsinMapping
	err := s.db.WithContext(ctx).First(&m, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return nil, translateErr(err, "isin mapping", id)
	}
	return &m, nil
}

func (s *mappingStore) GetByISIN(ctx context.Context, userID, isin string) (*models.IsinMapping, error) {
	var m models.IsinMapping
	err := s.db.WithContext(ctx).First(&m, "user_id = ? AND isin = ?", userID, isin).Error
	if err != nil {
		return nil, translateErr(err, "isin mapping", isin)
	}
	return &m, nil
}

func (s *mappingStore) List(ctx context.Context, userID string) ([]models.IsinMapping, error) {
	var ms []models.IsinMapping
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("isin ASC").
		Find(&ms).Error
	if err != nil {
		return nil, translateErr(err, "isin mappings", "")
	}
	return ms, nil
}

func (s *mappingStore) Update(ctx context.Context, m *models.IsinMapping) error {
	return translateErr(s.db.WithContext(ctx).Save(m).Error, "isin mapping", m.ID)
}

func (s *mappingStore) Delete(ctx context.Context, id, userID string) error {
	res := s.db.WithContext(ctx).Delete(&models.IsinMapping{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return translateErr(res.Error, "isin mapping", id)
	}
	if res.RowsAffected == 0 {
		return &models.NotFoundError{Resource: "isin mapping", ID: id}
	}
	return nil
}

// UpsertPlaceholder inserts a mapping with an empty symbol for an unknown
// ISIN, leaving any existing row for the same (user, isin) pair untouched.
func (s *mappingStore) UpsertPlaceholder(ctx context.Context, userID, isin, name string) error {
	m := &models.IsinMapping{
		ID:     newID(),
		UserID: userID,
		ISIN:   isin,
		Symbol: "",
		Name:   name,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "isin"}},
			DoNothing: true,
		}).
		Create(m).Error
	return translateErr(err, "isin mapping", isin)
}
