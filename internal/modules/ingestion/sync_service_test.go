package ingestion

import (
	"errors"
	"testing"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/modules/history"
	testingpkg "github.com/aristath/valuator/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncFixture struct {
	service   *SyncService
	store     *history.Store
	prices    *testingpkg.MockPriceFetcher
	forecasts *testingpkg.MockForecastFetcher
	sleeper   *testingpkg.RecordingSleeper
	closeDB   func()
}

func newSyncFixture(t *testing.T, strict bool) *syncFixture {
	db, cleanup := testingpkg.NewTestDB(t, "valuation")
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := history.NewStore(db.Conn(), log)
	prices := testingpkg.NewMockPriceFetcher()
	forecasts := testingpkg.NewMockForecastFetcher()
	sleeper := &testingpkg.RecordingSleeper{}

	shanghai := time.FixedZone("CST", 8*3600)

	service := NewSyncService(prices, forecasts, store, store, Options{
		Delay:    time.Second,
		Strict:   strict,
		Location: shanghai,
	}, log)
	service.SetSleeper(sleeper)

	return &syncFixture{
		service:   service,
		store:     store,
		prices:    prices,
		forecasts: forecasts,
		sleeper:   sleeper,
		closeDB:   func() { _ = db.Close() },
	}
}

func TestSyncPrices_BackfillThenIncrement(t *testing.T) {
	f := newSyncFixture(t, true)
	f.prices.SetBars("SH600519", testingpkg.NewPriceBars(30))

	summary, err := f.service.SyncPrices([]string{"SH600519"})
	require.NoError(t, err)
	assert.Equal(t, SyncSummary{Total: 1, Succeeded: 1, Points: 30}, summary)

	summary, err = f.service.SyncPrices([]string{"SH600519"})
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Points)

	require.Len(t, f.prices.Calls, 2)
	assert.Equal(t, BackfillCount, f.prices.Calls[0].Count)
	assert.Equal(t, IncrementalCount, f.prices.Calls[1].Count)

	// re-fetched days replaced, not duplicated
	points, err := f.store.QueryPriceHistory("SH600519", 0)
	require.NoError(t, err)
	assert.Len(t, points, 30)

	// single symbol, no delay
	assert.Equal(t, 0, f.sleeper.Count())
}

func TestSyncPrices_DelayBetweenSymbolsOnly(t *testing.T) {
	f := newSyncFixture(t, true)
	symbols := []string{"A", "B", "C"}
	for _, s := range symbols {
		f.prices.SetBars(s, testingpkg.NewPriceBars(5))
	}

	summary, err := f.service.SyncPrices(symbols)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 15, summary.Points)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, f.sleeper.Delays)
}

func TestSyncPrices_StrictAbortsOnFetchFailure(t *testing.T) {
	f := newSyncFixture(t, true)
	f.prices.SetBars("A", testingpkg.NewPriceBars(5))
	f.prices.SetError("B", errors.New("http 500"))
	f.prices.SetBars("C", testingpkg.NewPriceBars(5))

	summary, err := f.service.SyncPrices([]string{"A", "B", "C"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aborted at B")
	assert.False(t, domain.IsStorageError(err))
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Failures["B"], "http 500")

	// C never requested
	require.Len(t, f.prices.Calls, 2)
}

func TestSyncPrices_LenientContinues(t *testing.T) {
	f := newSyncFixture(t, false)
	f.prices.SetBars("A", testingpkg.NewPriceBars(5))
	f.prices.SetBars("B", nil)
	f.prices.SetBars("C", testingpkg.NewPriceBars(5))

	summary, err := f.service.SyncPrices([]string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.Failures["B"], ErrNoPriceData.Error())
}

func TestSyncPrices_StorageErrorAlwaysAborts(t *testing.T) {
	f := newSyncFixture(t, false)
	f.prices.SetBars("A", testingpkg.NewPriceBars(5))
	f.closeDB()

	_, err := f.service.SyncPrices([]string{"A", "B"})
	require.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
	assert.Empty(t, f.prices.Calls)
}

func TestSyncForecasts(t *testing.T) {
	f := newSyncFixture(t, false)
	// 2024-03-01 17:30 UTC is already 2024-03-02 in Shanghai
	f.service.SetClock(func() time.Time { return time.Date(2024, 3, 1, 17, 30, 0, 0, time.UTC) })

	f.forecasts.SetForecast("SH600519", 2025, 8.6e10)
	f.forecasts.SetForecast("SZ000858", 2025, 0)
	f.forecasts.SetError("hk00700", errors.New("table not found"))

	summary, err := f.service.SyncForecasts([]string{"SH600519", "SZ000858", "hk00700"})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, f.sleeper.Count())

	latest, err := f.store.LatestProfitForecast("SH600519")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "2024-03-02", latest.ForecastDate)
	assert.Equal(t, 2025, latest.ForecastYear)
	assert.Equal(t, 8.6e10, latest.ForecastNetProfit)

	missing, err := f.store.LatestProfitForecast("SZ000858")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSyncForecasts_StrictAborts(t *testing.T) {
	f := newSyncFixture(t, true)
	f.forecasts.SetError("A", errors.New("timeout"))
	f.forecasts.SetForecast("B", 2025, 1e9)

	_, err := f.service.SyncForecasts([]string{"A", "B"})
	require.Error(t, err)
	assert.Equal(t, []string{"A"}, f.forecasts.Calls)
}
