// Package isin manages the per-user ISIN-to-symbol resolution table.
package isin

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
)

// Service implements IsinService.
type Service struct {
	store  interfaces.Store
	logger *common.Logger
}

// NewService creates a new ISIN mapping service.
func NewService(store interfaces.Store, logger *common.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Resolve looks up the trading symbol for an ISIN. A placeholder mapping
// (present but without a symbol) resolves to (nil, nil) so callers can tell
// "known but unmapped" apart from "never seen".
func (s *Service) Resolve(ctx context.Context, userID, isin string) (*interfaces.ResolvedSecurity, error) {
	mapping, err := s.store.Mappings().GetByISIN(ctx, userID, normalizeISIN(isin))
	if err != nil {
		return nil, err
	}
	if !mapping.Resolved() {
		return nil, nil
	}
	return &interfaces.ResolvedSecurity{Symbol: mapping.Symbol, Name: mapping.Name}, nil
}

// Create adds a mapping. The ISIN and symbol are upper-cased; a duplicate
// (user, isin) pair fails with ConflictError.
func (s *Service) Create(ctx context.Context, userID, isin, symbol, name string) (*models.IsinMapping, error) {
	isin = normalizeISIN(isin)
	if err := validateISIN(isin); err != nil {
		return nil, err
	}

	mapping := &models.IsinMapping{
		ID:     uuid.New().String(),
		UserID: userID,
		ISIN:   isin,
		Symbol: normalizeSymbol(symbol),
		Name:   strings.TrimSpace(name),
	}
	if err := s.store.Mappings().Create(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Update patches a mapping's symbol and/or name; nil fields keep their
// current value, so a name-only edit cannot blank the symbol. The ISIN
// itself is immutable; a wrong ISIN is a delete plus re-create. Holdings are
// left alone until ResyncHoldings runs.
func (s *Service) Update(ctx context.Context, userID, id string, symbol, name *string) (*models.IsinMapping, error) {
	mapping, err := s.store.Mappings().GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if symbol != nil {
		mapping.Symbol = normalizeSymbol(*symbol)
	}
	if name != nil {
		mapping.Name = strings.TrimSpace(*name)
	}
	if err := s.store.Mappings().Update(ctx, mapping); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Delete removes a mapping. Holdings that were created through it keep
// their symbol.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.Mappings().Delete(ctx, id, userID)
}

// Get returns the mapping for an ISIN.
func (s *Service) Get(ctx context.Context, userID, isin string) (*models.IsinMapping, error) {
	return s.store.Mappings().GetByISIN(ctx, userID, normalizeISIN(isin))
}

// List returns all mappings of a user, placeholders included.
func (s *Service) List(ctx context.Context, userID string) ([]models.IsinMapping, error) {
	return s.store.Mappings().List(ctx, userID)
}

// ResyncHoldings pushes symbol and name from every resolved mapping onto
// the user's holdings sharing that ISIN. Returns the number of holdings
// updated. Runs in one transaction.
func (s *Service) ResyncHoldings(ctx context.Context, userID string) (int, error) {
	var updated int
	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		mappings, err := tx.Mappings().List(ctx, userID)
		if err != nil {
			return err
		}

		for _, mapping := range mappings {
			if !mapping.Resolved() {
				continue
			}
			holdings, err := tx.Holdings().ListByUserAndISIN(ctx, userID, mapping.ISIN)
			if err != nil {
				return err
			}
			for i := range holdings {
				holding := &holdings[i]
				if holding.Symbol == mapping.Symbol && (mapping.Name == "" || holding.Name == mapping.Name) {
					continue
				}
				holding.Symbol = mapping.Symbol
				if mapping.Name != "" {
					holding.Name = mapping.Name
				}
				if err := tx.Holdings().Update(ctx, holding); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("user", userID).Int("updated", updated).Msg("Holdings resynced from ISIN mappings")
	return updated, nil
}

func normalizeISIN(isin string) string {
	return strings.ToUpper(strings.TrimSpace(isin))
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// validateISIN checks the shape only (two letters, then nine alphanumerics,
// then a check digit). The checksum is not verified; broker exports are
// trusted on that.
func validateISIN(isin string) error {
	if len(isin) != 12 {
		return &models.ValidationError{Field: "isin", Reason: "must be 12 characters"}
	}
	for i, r := range isin {
		switch {
		case i < 2 && (r < 'A' || r > 'Z'):
			return &models.ValidationError{Field: "isin", Reason: "must start with a two-letter country code"}
		case i >= 2 && !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'):
			return &models.ValidationError{Field: "isin", Reason: "must be alphanumeric"}
		}
	}
	return nil
}
