package trading

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotd/depotd/internal/common"
	"github.com/depotd/depotd/internal/interfaces"
	"github.com/depotd/depotd/internal/models"
	"github.com/depotd/depotd/internal/storage"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type fakeQuotes struct {
	prices map[string]decimal.Decimal
}

func (f *fakeQuotes) FetchQuote(_ context.Context, symbol string) (*models.Quote, error) {
	price, ok := f.prices[symbol]
	if !ok {
		return nil, &models.QuoteUnavailableError{Symbol: symbol, Err: errors.New("unknown symbol")}
	}
	return &models.Quote{Symbol: symbol, Price: price, Currency: "EUR"}, nil
}

type fixture struct {
	store   *storage.GormStore
	service *Service
	user    *models.User
	depot   *models.Depot
}

func newFixture(t *testing.T, quotes interfaces.QuoteClient) *fixture {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	store, err := storage.Open(common.DatabaseConfig{Dialect: "sqlite", DSN: dsn}, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	user := &models.User{ID: uuid.New().String(), Username: "trader", Email: "trader@example.com", PasswordHash: "x"}
	require.NoError(t, store.Users().Create(ctx, user))
	depot := &models.Depot{ID: uuid.New().String(), UserID: user.ID, Name: "Main", CashBalance: decimal.Zero}
	require.NoError(t, store.Depots().Create(ctx, depot))

	return &fixture{
		store:   store,
		service: NewService(store, quotes, common.NewSilentLogger()),
		user:    user,
		depot:   depot,
	}
}

func (f *fixture) buy(t *testing.T, symbol, shares, price string) *models.Holding {
	t.Helper()
	holding, _, err := f.service.Buy(context.Background(), f.user.ID, interfaces.BuyOrder{
		DepotID: f.depot.ID,
		Symbol:  symbol,
		Shares:  d(shares),
		Price:   d(price),
	})
	require.NoError(t, err)
	return holding
}

func TestBuyCreatesAndFoldsHolding(t *testing.T) {
	f := newFixture(t, nil)

	first := f.buy(t, "sap", "10", "100")
	assert.Equal(t, "SAP", first.Symbol, "symbol is normalized to upper case")
	assert.Equal(t, "SAP", first.Name, "name defaults to symbol")
	assert.Equal(t, models.PositionOpen, first.State)

	second := f.buy(t, "SAP", "10", "200")
	assert.Equal(t, first.ID, second.ID, "same (depot, symbol) folds into one holding")
	assert.True(t, second.AvgBuyPrice.Equal(d("150")), "avg: %s", second.AvgBuyPrice)
	assert.True(t, second.CurrentShares.Equal(d("20")))

	txs, err := f.store.Transactions().ListByHolding(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestTradesRecordMarketPrice(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	holding := f.buy(t, "SAP", "10", "100")
	assert.True(t, holding.MarketPrice.Equal(d("100")), "new holding is valued at its buy price: %s", holding.MarketPrice)

	holding = f.buy(t, "SAP", "5", "120")
	assert.True(t, holding.MarketPrice.Equal(d("120")), "market price follows the last trade")

	result, err := f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{HoldingID: holding.ID, Shares: d("3"), Price: d("130")})
	require.NoError(t, err)
	assert.True(t, result.Holding.MarketPrice.Equal(d("130")))

	// The trade price is persisted, not just reported.
	stored, err := f.store.Holdings().Get(ctx, holding.ID)
	require.NoError(t, err)
	assert.True(t, stored.MarketPrice.Equal(d("130")), "stored market price: %s", stored.MarketPrice)
}

func TestBuyRejectsForeignDepot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	intruder := &models.User{ID: uuid.New().String(), Username: "intruder", Email: "i@example.com", PasswordHash: "x"}
	require.NoError(t, f.store.Users().Create(ctx, intruder))

	_, _, err := f.service.Buy(ctx, intruder.ID, interfaces.BuyOrder{
		DepotID: f.depot.ID,
		Symbol:  "SAP",
		Shares:  d("1"),
		Price:   d("100"),
	})
	require.Error(t, err)
	assert.True(t, models.IsNotFound(err))

	holdings, err := f.store.Holdings().ListByDepot(ctx, f.depot.ID)
	require.NoError(t, err)
	assert.Empty(t, holdings, "rejected buy must not leave a holding behind")
}

func TestBuyValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, _, err := f.service.Buy(ctx, f.user.ID, interfaces.BuyOrder{DepotID: f.depot.ID, Symbol: " ", Shares: d("1"), Price: d("1")})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)

	_, _, err = f.service.Buy(ctx, f.user.ID, interfaces.BuyOrder{DepotID: f.depot.ID, Symbol: "SAP", Shares: d("0"), Price: d("1")})
	require.ErrorAs(t, err, &ve)
}

func TestSellPartialAndClose(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holding := f.buy(t, "SAP", "10", "100")
	f.buy(t, "SAP", "10", "200")

	result, err := f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{
		HoldingID: holding.ID,
		Shares:    d("5"),
		Price:     d("180"),
	})
	require.NoError(t, err)
	assert.True(t, result.RealizedGain.Equal(d("150")), "gain: %s", result.RealizedGain)
	assert.True(t, result.Holding.CurrentShares.Equal(d("15")))

	result, err = f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{
		HoldingID: holding.ID,
		Shares:    d("15"),
		Price:     d("160"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.PositionClosed, result.Holding.State)

	// Closed holdings survive with their history attached.
	got, err := f.store.Holdings().Get(ctx, holding.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentShares.IsZero())
	txs, err := f.store.Transactions().ListByHolding(ctx, holding.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 4)
}

func TestSellMoreThanHeld(t *testing.T) {
	f := newFixture(t, nil)
	holding := f.buy(t, "SAP", "10", "100")

	_, err := f.service.Sell(context.Background(), f.user.ID, interfaces.SellOrder{
		HoldingID: holding.ID,
		Shares:    d("11"),
		Price:     d("100"),
	})
	var ise *models.InsufficientSharesError
	require.ErrorAs(t, err, &ise)

	// No SELL row was written.
	txs, err := f.store.Transactions().ListByHolding(context.Background(), holding.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 1)
}

func TestBuyReopensClosedPosition(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holding := f.buy(t, "SAP", "10", "100")

	_, err := f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{HoldingID: holding.ID, Shares: d("10"), Price: d("120")})
	require.NoError(t, err)

	reopened := f.buy(t, "SAP", "5", "110")
	assert.Equal(t, holding.ID, reopened.ID)
	assert.Equal(t, models.PositionOpen, reopened.State)
	assert.True(t, reopened.CurrentShares.Equal(d("5")))
	// Weighted average still spans all shares ever bought: (10*100+5*110)/15.
	assert.True(t, reopened.AvgBuyPrice.Equal(d("1550").Div(d("15"))), "avg: %s", reopened.AvgBuyPrice)
}

func TestDeleteTransactionReversesSell(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holding := f.buy(t, "SAP", "10", "100")

	result, err := f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{HoldingID: holding.ID, Shares: d("10"), Price: d("120")})
	require.NoError(t, err)
	assert.Equal(t, models.PositionClosed, result.Holding.State)

	got, err := f.service.DeleteTransaction(ctx, f.user.ID, result.Transaction.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentShares.Equal(d("10")))
	assert.Equal(t, models.PositionOpen, got.State)

	_, err = f.store.Transactions().Get(ctx, result.Transaction.ID)
	assert.True(t, models.IsNotFound(err))
}

func TestDeleteBuyBlockedByLaterSells(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holding := f.buy(t, "SAP", "10", "100")
	_, buyTx, err := f.service.Buy(ctx, f.user.ID, interfaces.BuyOrder{
		DepotID: f.depot.ID, Symbol: "SAP", Shares: d("2"), Price: d("150"),
	})
	require.NoError(t, err)

	_, err = f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{HoldingID: holding.ID, Shares: d("11"), Price: d("160")})
	require.NoError(t, err)

	// Current is 1 share; deleting the 2-share buy would go negative.
	_, err = f.service.DeleteTransaction(ctx, f.user.ID, buyTx.ID)
	var nse *models.NegativeSharesError
	require.ErrorAs(t, err, &nse)

	// Transaction and holding are untouched.
	_, err = f.store.Transactions().Get(ctx, buyTx.ID)
	require.NoError(t, err)
	got, err := f.store.Holdings().Get(ctx, holding.ID)
	require.NoError(t, err)
	assert.True(t, got.CurrentShares.Equal(d("1")))
}

func TestRebuildHoldingRederivesAverage(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	holding := f.buy(t, "SAP", "10", "100")
	_, expensiveBuy, err := f.service.Buy(ctx, f.user.ID, interfaces.BuyOrder{
		DepotID: f.depot.ID, Symbol: "SAP", Shares: d("10"), Price: d("300"),
	})
	require.NoError(t, err)

	// Deleting the buy reverses shares but leaves the recorded average.
	got, err := f.service.DeleteTransaction(ctx, f.user.ID, expensiveBuy.ID)
	require.NoError(t, err)
	assert.True(t, got.AvgBuyPrice.Equal(d("200")))

	// Rebuild replays the surviving log and recovers the true average.
	rebuilt, err := f.service.RebuildHolding(ctx, f.user.ID, holding.ID)
	require.NoError(t, err)
	assert.True(t, rebuilt.AvgBuyPrice.Equal(d("100")), "avg: %s", rebuilt.AvgBuyPrice)
	assert.True(t, rebuilt.CurrentShares.Equal(d("10")))
}

func TestRefreshPrice(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]decimal.Decimal{"SAP": d("178.44")}}
	f := newFixture(t, quotes)
	holding := f.buy(t, "SAP", "10", "100")

	got, err := f.service.RefreshPrice(context.Background(), f.user.ID, holding.ID)
	require.NoError(t, err)
	assert.True(t, got.MarketPrice.Equal(d("178.44")))
}

func TestRefreshPriceUnavailable(t *testing.T) {
	f := newFixture(t, &fakeQuotes{prices: map[string]decimal.Decimal{}})
	holding := f.buy(t, "SAP", "10", "100")

	_, err := f.service.RefreshPrice(context.Background(), f.user.ID, holding.ID)
	var qerr *models.QuoteUnavailableError
	require.ErrorAs(t, err, &qerr)
}

func TestRefreshDepotPricesSkipsFailuresAndClosed(t *testing.T) {
	quotes := &fakeQuotes{prices: map[string]decimal.Decimal{"SAP": d("200")}}
	f := newFixture(t, quotes)
	ctx := context.Background()

	sap := f.buy(t, "SAP", "10", "100")
	f.buy(t, "NOQUOTE", "5", "50")
	closed := f.buy(t, "AAPL", "5", "50")
	_, err := f.service.Sell(ctx, f.user.ID, interfaces.SellOrder{HoldingID: closed.ID, Shares: d("5"), Price: d("60")})
	require.NoError(t, err)

	holdings, err := f.service.RefreshDepotPrices(ctx, f.user.ID, f.depot.ID)
	require.NoError(t, err)
	assert.Len(t, holdings, 3, "refresh returns all holdings, refreshed or not")

	got, err := f.store.Holdings().Get(ctx, sap.ID)
	require.NoError(t, err)
	assert.True(t, got.MarketPrice.Equal(d("200")))

	gotClosed, err := f.store.Holdings().Get(ctx, closed.ID)
	require.NoError(t, err)
	assert.True(t, gotClosed.MarketPrice.Equal(d("60")), "closed positions keep their last trade price, not the quote")
}
