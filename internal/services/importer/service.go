// Package importer reconciles bulk broker exports into depot state.
package importer

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
	"github.com/depotd/depotd/internal/services/ledger"
)

// Service implements ImportService. An import runs in one store
// transaction; each security group folds inside its own savepoint so a
// broken group rolls back alone while the rest of the file lands.
type Service struct {
	store  interfaces.Store
	quotes interfaces.QuoteClient
	isins  interfaces.IsinService
	logger *common.Logger
}

// NewService creates a new import service. quotes may be nil; market
// prices then fall back to the last row price of each group.
func NewService(store interfaces.Store, quotes interfaces.QuoteClient, isins interfaces.IsinService, logger *common.Logger) *Service {
	return &Service{store: store, quotes: quotes, isins: isins, logger: logger}
}

// securityGroup is all rows of one ISIN, kept in input order of first
// appearance and sorted chronologically inside.
type securityGroup struct {
	isin string
	name string
	rows []models.BrokerRow
}

// ImportBrokerTransactions applies a broker export to a depot. Replace mode
// first wipes existing holdings and transactions for every ISIN present in
// the input, making re-import of a corrected export idempotent; add mode
// folds rows into existing positions. Unmappable ISINs get an empty-symbol
// placeholder mapping and an actionable per-group error; the import itself
// always completes.
func (s *Service) ImportBrokerTransactions(ctx context.Context, userID, depotID string, rows []models.BrokerRow, mode models.ImportMode) (*models.ImportResult, error) {
	switch mode {
	case models.ImportModeReplace, models.ImportModeAdd:
	default:
		return nil, &models.ValidationError{Field: "mode", Reason: "must be replace or add"}
	}

	result := &models.ImportResult{
		Holdings: []models.Holding{},
		RowsSeen: len(rows),
		Errors:   []models.ImportRowError{},
	}

	groups := groupRows(rows, result)

	// Ownership is checked before resolution so a foreign depot leaves no
	// placeholder mappings behind.
	if _, err := s.store.Depots().GetOwned(ctx, depotID, userID); err != nil {
		return nil, err
	}

	type resolvedGroup struct {
		group  *securityGroup
		symbol string
	}
	resolved := make([]resolvedGroup, 0, len(groups))
	for _, group := range groups {
		symbol, rowErr := s.resolveGroup(ctx, userID, group)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		resolved = append(resolved, resolvedGroup{group: group, symbol: symbol})
	}

	err := s.store.Transaction(ctx, func(tx interfaces.Store) error {
		if _, err := tx.Depots().GetOwned(ctx, depotID, userID); err != nil {
			return err
		}

		if mode == models.ImportModeReplace {
			isins := make([]string, 0, len(groups))
			for _, g := range groups {
				isins = append(isins, g.isin)
			}
			if err := tx.Holdings().DeleteByDepotAndISINs(ctx, depotID, isins); err != nil {
				return err
			}
		}

		for _, rg := range resolved {
			holding, err := s.applyGroup(ctx, tx, depotID, rg.symbol, rg.group)
			if err != nil {
				s.logger.Warn().Str("isin", rg.group.isin).Err(err).Msg("Import group rolled back")
				result.Errors = append(result.Errors, models.ImportRowError{
					ISIN:   rg.group.isin,
					Name:   rg.group.name,
					Reason: err.Error(),
				})
				continue
			}
			result.Holdings = append(result.Holdings, *holding)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("depot", depotID).
		Str("mode", string(mode)).
		Int("rows", result.RowsSeen).
		Int("holdings", len(result.Holdings)).
		Int("errors", len(result.Errors)).
		Msg("Broker import finished")
	return result, nil
}

// groupRows buckets rows by ISIN, preserving first-appearance order across
// groups and timestamp order within. Rows without an ISIN are recorded as
// errors and dropped.
func groupRows(rows []models.BrokerRow, result *models.ImportResult) []*securityGroup {
	byISIN := make(map[string]*securityGroup)
	var ordered []*securityGroup

	for _, row := range rows {
		isin := strings.ToUpper(strings.TrimSpace(row.ISIN))
		if isin == "" {
			result.Errors = append(result.Errors, models.ImportRowError{
				Name:   row.Name,
				Reason: "row has no ISIN",
			})
			continue
		}
		row.ISIN = isin

		group, ok := byISIN[isin]
		if !ok {
			group = &securityGroup{isin: isin}
			byISIN[isin] = group
			ordered = append(ordered, group)
		}
		if group.name == "" {
			group.name = strings.TrimSpace(row.Name)
		}
		group.rows = append(group.rows, row)
	}

	for _, group := range ordered {
		rows := group.rows
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	}
	return ordered
}

// resolveGroup maps a group's ISIN to a trading symbol via the ISIN
// service. An unknown ISIN gets a placeholder mapping upserted so the user
// finds it in the mapping table; the group is reported back as needing a
// mapping either way. Resolution runs before the import transaction opens,
// so placeholders survive even when a later group fails.
func (s *Service) resolveGroup(ctx context.Context, userID string, group *securityGroup) (string, *models.ImportRowError) {
	resolved, err := s.isins.Resolve(ctx, userID, group.isin)
	if models.IsNotFound(err) {
		if err := s.store.Mappings().UpsertPlaceholder(ctx, userID, group.isin, group.name); err != nil {
			return "", &models.ImportRowError{ISIN: group.isin, Name: group.name, Reason: err.Error()}
		}
		return "", &models.ImportRowError{
			ISIN:         group.isin,
			Name:         group.name,
			Reason:       "no symbol mapping for ISIN",
			NeedsMapping: true,
		}
	}
	if err != nil {
		return "", &models.ImportRowError{ISIN: group.isin, Name: group.name, Reason: err.Error()}
	}
	if resolved == nil {
		return "", &models.ImportRowError{
			ISIN:         group.isin,
			Name:         group.name,
			Reason:       "symbol mapping for ISIN is empty",
			NeedsMapping: true,
		}
	}
	if group.name == "" {
		group.name = resolved.Name
	}
	return resolved.Symbol, nil
}

// applyGroup folds one security group into its holding inside a savepoint.
// Any failure rolls the whole group back, transactions included.
func (s *Service) applyGroup(ctx context.Context, tx interfaces.Store, depotID, symbol string, group *securityGroup) (*models.Holding, error) {
	var holding *models.Holding
	err := tx.Transaction(ctx, func(inner interfaces.Store) error {
		var err error
		holding, err = s.findOrCreateHolding(ctx, inner, depotID, symbol, group)
		if err != nil {
			return err
		}

		for _, row := range group.rows {
			if err := ledger.ValidateOrder(row.Shares, row.Price); err != nil {
				return err
			}
			switch row.Type {
			case models.TransactionBuy:
				ledger.ApplyBuy(holding, row.Shares, row.Price)
			case models.TransactionSell:
				if _, err := ledger.ApplySell(holding, row.Shares, row.Price); err != nil {
					return err
				}
			default:
				return &models.ValidationError{Field: "type", Reason: "must be BUY or SELL"}
			}

			transaction := &models.Transaction{
				ID:        uuid.New().String(),
				HoldingID: holding.ID,
				Type:      row.Type,
				Shares:    row.Shares,
				Price:     row.Price,
				Timestamp: row.Timestamp,
			}
			if err := inner.Transactions().Create(ctx, transaction); err != nil {
				return err
			}
		}

		holding.MarketPrice = s.marketPrice(ctx, symbol, group)
		return inner.Holdings().Update(ctx, holding)
	})
	if err != nil {
		return nil, err
	}
	return holding, nil
}

func (s *Service) findOrCreateHolding(ctx context.Context, tx interfaces.Store, depotID, symbol string, group *securityGroup) (*models.Holding, error) {
	holding, err := tx.Holdings().GetByDepotAndSymbol(ctx, depotID, symbol, true)
	if err == nil {
		if holding.ISIN == "" {
			holding.ISIN = group.isin
		}
		return holding, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	name := group.name
	if name == "" {
		name = symbol
	}
	holding = &models.Holding{
		ID:      uuid.New().String(),
		DepotID: depotID,
		Name:    name,
		Symbol:  symbol,
		ISIN:    group.isin,
		State:   models.PositionClosed,
	}
	if err := tx.Holdings().Create(ctx, holding); err != nil {
		return nil, err
	}
	return holding, nil
}

// marketPrice asks the quote capability for a live price and falls back to
// the chronologically last row price of the group.
func (s *Service) marketPrice(ctx context.Context, symbol string, group *securityGroup) decimal.Decimal {
	if s.quotes != nil {
		if quote, err := s.quotes.FetchQuote(ctx, symbol); err == nil {
			return quote.Price
		}
		s.logger.Debug().Str("symbol", symbol).Msg("No quote during import, using last row price")
	}
	return group.rows[len(group.rows)-1].Price
}
