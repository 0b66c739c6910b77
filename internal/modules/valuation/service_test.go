package valuation

import (
	"testing"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/modules/history"
	testingpkg "github.com/aristath/valuator/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceFixture(t *testing.T) (*Service, *history.Store, func()) {
	db, cleanup := testingpkg.NewTestDB(t, "valuation")
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := history.NewStore(db.Conn(), log)
	service := NewService(store, 0, time.FixedZone("CST", 8*3600), log)
	service.SetClock(func() time.Time { return time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC) })

	return service, store, func() { _ = db.Close() }
}

func seed(t *testing.T, store *history.Store, symbol string, days int, profit float64) {
	t.Helper()
	if days > 0 {
		_, err := store.UpsertPricePoints(symbol, testingpkg.NewPriceBars(days))
		require.NoError(t, err)
	}
	if profit != 0 {
		require.NoError(t, store.UpsertProfitForecast(domain.ProfitForecast{
			Symbol: symbol, ForecastYear: 2025, ForecastNetProfit: profit, ForecastDate: "2024-03-01",
		}))
	}
}

func TestProcessAll_OutcomesAndPersistence(t *testing.T) {
	service, store, _ := newServiceFixture(t)

	seed(t, store, "A", 1000, 5e9)
	seed(t, store, "B", 999, 5e9)
	seed(t, store, "C", 1200, 0)
	seed(t, store, "D", 1200, -1e9)

	symbols := []domain.SymbolConfig{
		{Symbol: "A", StdMultiplier: 1},
		{Symbol: "B", StdMultiplier: 1},
		{Symbol: "C", StdMultiplier: 1},
		{Symbol: "D", StdMultiplier: 1},
	}

	summary, err := service.ProcessAll(symbols)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 3, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, map[string]int{
		ReasonInsufficientData:    1,
		ReasonForecastUnavailable: 1,
		ReasonInvalidForecast:     1,
	}, summary.SkipReasons())

	require.Len(t, summary.Outcomes, 4)
	assert.Equal(t, StatusOK, summary.Outcomes[0].Status)
	require.NotNil(t, summary.Outcomes[0].Snapshot)
	assert.Equal(t, ReasonInsufficientData, summary.Outcomes[1].Reason)

	snaps, err := store.AllValuationSnapshots()
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "A", snaps[0].Symbol)
	assert.Equal(t, "2024-03-01", snaps[0].ProfitDate)
	assert.Equal(t, "2024-03-02 18:00:00", snaps[0].CalculationDate)

	// re-running the same day and forecast overwrites
	_, err = service.ProcessAll(symbols)
	require.NoError(t, err)
	snaps, err = store.AllValuationSnapshots()
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestProcessAll_StorageFailureAborts(t *testing.T) {
	service, _, closeDB := newServiceFixture(t)
	closeDB()

	summary, err := service.ProcessAll([]domain.SymbolConfig{{Symbol: "A"}, {Symbol: "B"}})
	require.Error(t, err)
	assert.True(t, domain.IsStorageError(err))
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Outcomes, 1)
	assert.Equal(t, ReasonStorage, summary.Outcomes[0].Reason)
}
