package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/modules/export"
	"github.com/aristath/valuator/internal/modules/history"
	testingpkg "github.com/aristath/valuator/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*chi.Mux, *history.Store, func()) {
	db, cleanup := testingpkg.NewTestDB(t, "valuation")
	t.Cleanup(cleanup)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	store := history.NewStore(db.Conn(), log)
	exporter := export.NewExporter(store, t.TempDir(), time.FixedZone("CST", 8*3600), log)

	handler := NewHandler(exporter, store, func() []string { return []string{"B", "A"} }, log)

	router := chi.NewRouter()
	router.Route("/api", handler.RegisterRoutes)
	return router, store, func() { _ = db.Close() }
}

func get(t *testing.T, router http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func seedValuations(t *testing.T, store *history.Store) {
	for _, v := range []domain.ValuationSnapshot{
		{Symbol: "A", Timestamp: 2000, ProfitDate: "2024-01-01", CalculationDate: "x"},
		{Symbol: "A", Timestamp: 1000, ProfitDate: "2024-01-01", CalculationDate: "x"},
		{Symbol: "B", Timestamp: 1000, ProfitDate: "2024-01-01", CalculationDate: "x"},
		{Symbol: "D", Timestamp: 1000, ProfitDate: "2024-01-01", CalculationDate: "x"},
	} {
		require.NoError(t, store.UpsertValuationSnapshot(v))
	}
}

func TestHandleGetValuations(t *testing.T) {
	router, store, _ := setupRouter(t)
	seedValuations(t, store)

	w, body := get(t, router, "/api/valuations/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])
	vals := data["valuations"].([]interface{})
	assert.Equal(t, "B", vals[0].(map[string]interface{})["symbol"])
	assert.Equal(t, "A", vals[1].(map[string]interface{})["symbol"])
	assert.Equal(t, float64(2000), vals[1].(map[string]interface{})["timestamp"])
}

func TestHandleGetValuationSeries(t *testing.T) {
	router, store, _ := setupRouter(t)
	seedValuations(t, store)

	w, body := get(t, router, "/api/valuations/A")
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])

	w, _ = get(t, router, "/api/valuations/D")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetPricesAndForecasts(t *testing.T) {
	router, store, _ := setupRouter(t)

	_, err := store.UpsertPricePoints("A", testingpkg.NewPriceBars(20))
	require.NoError(t, err)
	require.NoError(t, store.UpsertProfitForecast(domain.ProfitForecast{Symbol: "A", ForecastYear: 2025, ForecastNetProfit: 1e9, ForecastDate: "2024-03-01"}))

	w, body := get(t, router, "/api/prices/A?limit=5")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), body["data"].(map[string]interface{})["count"])

	w, body = get(t, router, "/api/prices/A?limit=bad")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(20), body["data"].(map[string]interface{})["count"])

	w, body = get(t, router, "/api/forecasts/A")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["data"].(map[string]interface{})["count"])
}

func TestHandlers_StorageFailure(t *testing.T) {
	router, _, closeDB := setupRouter(t)
	closeDB()

	for _, path := range []string{"/api/valuations/", "/api/valuations/A", "/api/prices/A", "/api/forecasts/A"} {
		w, _ := get(t, router, path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
	}
}
