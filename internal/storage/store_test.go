package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	// A named shared in-memory database keeps the schema visible across
	// the pool's connections; a bare :memory: DSN gives each connection
	// its own empty database.
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	store, err := Open(common.DatabaseConfig{Dialect: "sqlite", DSN: dsn}, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedUser(t *testing.T, store *GormStore) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "tester-" + uuid.New().String()[:8],
		Email:        uuid.New().String()[:8] + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedDepot(t *testing.T, store *GormStore, userID string) *models.Depot {
	t.Helper()
	depot := &models.Depot{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        "Test Depot",
		CashBalance: decimal.NewFromInt(1000),
	}
	require.NoError(t, store.Depots().Create(context.Background(), depot))
	return depot
}

func seedHolding(t *testing.T, store *GormStore, depotID, symbol, isin string) *models.Holding {
	t.Helper()
	holding := &models.Holding{
		ID:            uuid.New().String(),
		DepotID:       depotID,
		Name:          symbol + " Inc",
		Symbol:        symbol,
		ISIN:          isin,
		TotalShares:   decimal.NewFromInt(10),
		CurrentShares: decimal.NewFromInt(10),
		AvgBuyPrice:   decimal.NewFromInt(100),
		MarketPrice:   decimal.NewFromInt(110),
		State:         models.PositionOpen,
	}
	require.NoError(t, store.Holdings().Create(context.Background(), holding))
	return holding
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)

	dup := &models.User{
		ID:           uuid.New().String(),
		Username:     user.Username,
		Email:        "other@example.com",
		PasswordHash: "x",
	}
	err := store.Users().Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))
}

func TestDepotStoreOwnership(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, store)
	other := seedUser(t, store)
	depot := seedDepot(t, store, owner.ID)

	got, err := store.Depots().GetOwned(ctx, depot.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, depot.Name, got.Name)

	_, err = store.Depots().GetOwned(ctx, depot.ID, other.ID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))
}

func TestDepotStoreClearCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)
	depot := seedDepot(t, store, user.ID)
	holding := seedHolding(t, store, depot.ID, "AAPL", "US0378331005")

	tx := &models.Transaction{
		ID:        uuid.New().String(),
		HoldingID: holding.ID,
		Type:      models.TransactionBuy,
		Shares:    decimal.NewFromInt(10),
		Price:     decimal.NewFromInt(100),
		Timestamp: time.Now(),
	}
	require.NoError(t, store.Transactions().Create(ctx, tx))

	removed, err := store.Depots().Clear(ctx, depot.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Holdings().Get(ctx, holding.ID)
	assert.True(t, models.IsNotFound(err))
	_, err = store.Transactions().Get(ctx, tx.ID)
	assert.True(t, models.IsNotFound(err))

	// Depot survives a clear.
	_, err = store.Depots().GetOwned(ctx, depot.ID, user.ID)
	assert.NoError(t, err)
}

func TestHoldingStoreUniquePerDepotSymbol(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)
	depot := seedDepot(t, store, user.ID)
	seedHolding(t, store, depot.ID, "AAPL", "US0378331005")

	dup := &models.Holding{
		ID:      uuid.New().String(),
		DepotID: depot.ID,
		Name:    "Apple again",
		Symbol:  "AAPL",
		State:   models.PositionOpen,
	}
	err := store.Holdings().Create(ctx, dup)
	require.Error(t, err)
	assert.True(t, models.IsConflict(err))

	// Same symbol in another depot is fine.
	depot2 := seedDepot(t, store, user.ID)
	seedHolding(t, store, depot2.ID, "AAPL", "US0378331005")
}

func TestHoldingStoreListByUserAndISIN(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)
	other := seedUser(t, store)
	depotA := seedDepot(t, store, user.ID)
	depotB := seedDepot(t, store, user.ID)
	depotC := seedDepot(t, store, other.ID)

	seedHolding(t, store, depotA.ID, "SAP", "DE0007164600")
	seedHolding(t, store, depotB.ID, "SAP", "DE0007164600")
	seedHolding(t, store, depotC.ID, "SAP", "DE0007164600")
	seedHolding(t, store, depotA.ID, "AAPL", "US0378331005")

	holdings, err := store.Holdings().ListByUserAndISIN(ctx, user.ID, "DE0007164600")
	require.NoError(t, err)
	assert.Len(t, holdings, 2)
}

func TestHoldingStoreDeleteByDepotAndISINs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)
	depot := seedDepot(t, store, user.ID)
	wiped := seedHolding(t, store, depot.ID, "SAP", "DE0007164600")
	kept := seedHolding(t, store, depot.ID, "AAPL", "US0378331005")

	tx := &models.Transaction{
		ID:        uuid.New().String(),
		HoldingID: wiped.ID,
		Type:      models.TransactionBuy,
		Shares:    decimal.NewFromInt(5),
		Price:     decimal.NewFromInt(50),
		Timestamp: time.Now(),
	}
	require.NoError(t, store.Transactions().Create(ctx, tx))

	err := store.Holdings().DeleteByDepotAndISINs(ctx, depot.ID, []string{"DE0007164600", "DE0008404005"})
	require.NoError(t, err)

	_, err = store.Holdings().Get(ctx, wiped.ID)
	assert.True(t, models.IsNotFound(err))
	_, err = store.Transactions().Get(ctx, tx.ID)
	assert.True(t, models.IsNotFound(err))
	_, err = store.Holdings().Get(ctx, kept.ID)
	assert.NoError(t, err)

	// Empty ISIN set is a no-op, not a full wipe.
	require.NoError(t, store.Holdings().DeleteByDepotAndISINs(ctx, depot.ID, nil))
	_, err = store.Holdings().Get(ctx, kept.ID)
	assert.NoError(t, err)
}

func TestTransactionStoreOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)
	depot := seedDepot(t, store, user.ID)
	holding := seedHolding(t, store, depot.ID, "AAPL", "US0378331005")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, day := range []int{2, 0, 1} {
		tx := &models.Transaction{
			ID:        uuid.New().String(),
			HoldingID: holding.ID,
			Type:      models.TransactionBuy,
			Shares:    decimal.NewFromInt(int64(i + 1)),
			Price:     decimal.NewFromInt(100),
			Timestamp: base.AddDate(0, 0, day),
		}
		require.NoError(t, store.Transactions().Create(ctx, tx))
	}

	desc, err := store.Transactions().ListByHolding(ctx, holding.ID)
	require.NoError(t, err)
	require.Len(t, desc, 3)
	assert.True(t, desc[0].Timestamp.After(desc[1].Timestamp))
	assert.True(t, desc[1].Timestamp.After(desc[2].Timestamp))

	asc, err := store.Transactions().ListByHoldingAsc(ctx, holding.ID)
	require.NoError(t, err)
	require.Len(t, asc, 3)
	assert.True(t, asc[0].Timestamp.Before(asc[1].Timestamp))
}

func TestMappingStoreUpsertPlaceholder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)

	mapping := &models.IsinMapping{
		ID:     uuid.New().String(),
		UserID: user.ID,
		ISIN:   "DE0007164600",
		Symbol: "SAP.DE",
		Name:   "SAP SE",
	}
	require.NoError(t, store.Mappings().Create(ctx, mapping))

	// Placeholder upsert must not clobber the resolved mapping.
	require.NoError(t, store.Mappings().UpsertPlaceholder(ctx, user.ID, "DE0007164600", "SAP SE"))
	got, err := store.Mappings().GetByISIN(ctx, user.ID, "DE0007164600")
	require.NoError(t, err)
	assert.Equal(t, "SAP.DE", got.Symbol)

	// Unknown ISIN gets an empty-symbol placeholder.
	require.NoError(t, store.Mappings().UpsertPlaceholder(ctx, user.ID, "US0378331005", "Apple Inc"))
	placeholder, err := store.Mappings().GetByISIN(ctx, user.ID, "US0378331005")
	require.NoError(t, err)
	assert.False(t, placeholder.Resolved())
	assert.Equal(t, "Apple Inc", placeholder.Name)
}

func TestMappingStoreDeleteScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	owner := seedUser(t, store)
	other := seedUser(t, store)

	mapping := &models.IsinMapping{
		ID:     uuid.New().String(),
		UserID: owner.ID,
		ISIN:   "DE0007164600",
		Symbol: "SAP.DE",
	}
	require.NoError(t, store.Mappings().Create(ctx, mapping))

	err := store.Mappings().Delete(ctx, mapping.ID, other.ID)
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))

	require.NoError(t, store.Mappings().Delete(ctx, mapping.ID, owner.ID))
}

func TestTransactionRollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := seedUser(t, store)
	depot := seedDepot(t, store, user.ID)

	sentinel := errors.New("boom")
	err := store.Transaction(ctx, func(tx interfaces.Store) error {
		holding := &models.Holding{
			ID:      uuid.New().String(),
			DepotID: depot.ID,
			Name:    "Apple Inc",
			Symbol:  "AAPL",
			State:   models.PositionOpen,
		}
		if err := tx.Holdings().Create(ctx, holding); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	holdings, err := store.Holdings().ListByDepot(ctx, depot.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings)
}
