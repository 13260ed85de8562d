package isin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/models"
	"github.com/depotd/depotd/internal/storage"
)

type fixture struct {
	store   *storage.GormStore
	service *Service
	user    *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	store, err := storage.Open(common.DatabaseConfig{Dialect: "sqlite", DSN: dsn}, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	user := &models.User{ID: uuid.New().String(), Username: "mapper", Email: "mapper@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(context.Background(), user))

	return &fixture{store: store, service: NewService(store, common.NewSilentLogger()), user: user}
}

func TestCreateNormalizesAndValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mapping, err := f.service.Create(ctx, f.user.ID, " de0007164600 ", "sap.de", " SAP SE ")
	require.NoError(t, err)
	assert.Equal(t, "DE0007164600", mapping.ISIN)
	assert.Equal(t, "SAP.DE", mapping.Symbol)
	assert.Equal(t, "SAP SE", mapping.Name)

	_, err = f.service.Create(ctx, f.user.ID, "DE123", "X", "")
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = f.service.Create(ctx, f.user.ID, "0E0007164600", "X", "")
	require.ErrorAs(t, err, &ve)
}

func TestCreateDuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Create(ctx, f.user.ID, "DE0007164600", "SAP.DE", "SAP SE")
	require.NoError(t, err)
	_, err = f.service.Create(ctx, f.user.ID, "DE0007164600", "SAP", "SAP SE")
	assert.True(t, models.IsConflict(err))

	// Same ISIN under another user is fine.
	other := &models.User{ID: uuid.New().String(), Username: "other", Email: "other@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(ctx, other))
	_, err = f.service.Create(ctx, other.ID, "DE0007164600", "SAP", "SAP SE")
	assert.NoError(t, err)
}

func TestResolveDistinguishesPlaceholderFromAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Resolve(ctx, f.user.ID, "DE0007164600")
	assert.True(t, models.IsNotFound(err), "never-seen ISIN is not found")

	require.NoError(t, f.store.Mappings().UpsertPlaceholder(ctx, f.user.ID, "DE0007164600", "SAP SE"))
	resolved, err := f.service.Resolve(ctx, f.user.ID, "DE0007164600")
	require.NoError(t, err)
	assert.Nil(t, resolved, "placeholder resolves to nil without error")

	_, err = f.service.Update(ctx, f.user.ID, mustMappingID(t, f, "DE0007164600"), str("SAP.DE"), str("SAP SE"))
	require.NoError(t, err)
	resolved, err = f.service.Resolve(ctx, f.user.ID, "de0007164600")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "SAP.DE", resolved.Symbol)
}

func mustMappingID(t *testing.T, f *fixture, isin string) string {
	t.Helper()
	mapping, err := f.store.Mappings().GetByISIN(context.Background(), f.user.ID, isin)
	require.NoError(t, err)
	return mapping.ID
}

func str(s string) *string { return &s }

func TestUpdatePatchesOnlyGivenFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mapping, err := f.service.Create(ctx, f.user.ID, "DE0007164600", "SAP.DE", "SAP SE")
	require.NoError(t, err)

	// A name-only patch must not blank the symbol.
	got, err := f.service.Update(ctx, f.user.ID, mapping.ID, nil, str("SAP SE (Xetra)"))
	require.NoError(t, err)
	assert.Equal(t, "SAP.DE", got.Symbol)
	assert.Equal(t, "SAP SE (Xetra)", got.Name)
	assert.True(t, got.Resolved(), "mapping must not revert to a placeholder")

	got, err = f.service.Update(ctx, f.user.ID, mapping.ID, str("sap"), nil)
	require.NoError(t, err)
	assert.Equal(t, "SAP", got.Symbol)
	assert.Equal(t, "SAP SE (Xetra)", got.Name)

	got, err = f.service.Update(ctx, f.user.ID, mapping.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "SAP", got.Symbol, "empty patch changes nothing")
}

func TestUpdateScopedToOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mapping, err := f.service.Create(ctx, f.user.ID, "DE0007164600", "SAP.DE", "SAP SE")
	require.NoError(t, err)

	other := &models.User{ID: uuid.New().String(), Username: "other", Email: "other@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(ctx, other))

	_, err = f.service.Update(ctx, other.ID, mapping.ID, str("HACK"), nil)
	assert.True(t, models.IsNotFound(err))
}

func TestResyncHoldings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	depot := &models.Depot{ID: uuid.New().String(), UserID: f.user.ID, Name: "Main", CashBalance: decimal.Zero}
	require.NoError(t, f.store.Depots().Create(ctx, depot))

	stale := &models.Holding{
		ID: uuid.New().String(), DepotID: depot.ID,
		Name: "DE0007164600", Symbol: "DE0007164600", ISIN: "DE0007164600",
		State: models.PositionOpen,
	}
	require.NoError(t, f.store.Holdings().Create(ctx, stale))
	unrelated := &models.Holding{
		ID: uuid.New().String(), DepotID: depot.ID,
		Name: "Apple Inc", Symbol: "AAPL", ISIN: "US0378331005",
		State: models.PositionOpen,
	}
	require.NoError(t, f.store.Holdings().Create(ctx, unrelated))

	_, err := f.service.Create(ctx, f.user.ID, "DE0007164600", "SAP.DE", "SAP SE")
	require.NoError(t, err)

	updated, err := f.service.ResyncHoldings(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	got, err := f.store.Holdings().Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, "SAP.DE", got.Symbol)
	assert.Equal(t, "SAP SE", got.Name)

	// Already-synced holdings are not touched again.
	updated, err = f.service.ResyncHoldings(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}
