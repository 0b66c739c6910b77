// Package handlers provides read-only HTTP handlers over the valuation store.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/modules/export"
	"github.com/rs/zerolog"
)

// ReportBuilder builds the export report for a canonical order
type ReportBuilder interface {
	Build(order []string) (export.Report, error)
}

// HistoryReader reads raw series from the store
type HistoryReader interface {
	QueryPriceHistory(symbol string, limit int) ([]domain.PricePoint, error)
	ProfitForecasts(symbol string) ([]domain.ProfitForecast, error)
}

// SymbolSource returns the canonical symbol order
type SymbolSource func() []string

// Handler serves valuations, prices and forecasts
type Handler struct {
	reports ReportBuilder
	history HistoryReader
	symbols SymbolSource
	log     zerolog.Logger
}

// NewHandler creates a new valuation handler
func NewHandler(reports ReportBuilder, history HistoryReader, symbols SymbolSource, log zerolog.Logger) *Handler {
	return &Handler{
		reports: reports,
		history: history,
		symbols: symbols,
		log:     log.With().Str("handler", "valuation").Logger(),
	}
}

// HandleGetValuations handles GET /api/valuations
func (h *Handler) HandleGetValuations(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Build(h.symbols())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build valuation report")
		http.Error(w, "Failed to get valuations", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"valuations": report.Latest,
			"count":      len(report.Latest),
		},
		"metadata": metadata(),
	})
}

// HandleGetValuationSeries handles GET /api/valuations/{symbol}
func (h *Handler) HandleGetValuationSeries(w http.ResponseWriter, r *http.Request, symbol string) {
	report, err := h.reports.Build(h.symbols())
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to build valuation report")
		http.Error(w, "Failed to get valuations", http.StatusInternalServerError)
		return
	}

	series, ok := report.Find(symbol)
	if !ok {
		http.Error(w, "Symbol not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":     symbol,
			"valuations": series.Records,
			"count":      len(series.Records),
		},
		"metadata": metadata(),
	})
}

// HandleGetPrices handles GET /api/prices/{symbol}?limit=N
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request, symbol string) {
	limit := 250 // default: one trading year
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	prices, err := h.history.QueryPriceHistory(symbol, limit)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get prices")
		http.Error(w, "Failed to get prices", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol": symbol,
			"prices": prices,
			"count":  len(prices),
		},
		"metadata": metadata(),
	})
}

// HandleGetForecasts handles GET /api/forecasts/{symbol}
func (h *Handler) HandleGetForecasts(w http.ResponseWriter, r *http.Request, symbol string) {
	forecasts, err := h.history.ProfitForecasts(symbol)
	if err != nil {
		h.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to get forecasts")
		http.Error(w, "Failed to get forecasts", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"symbol":    symbol,
			"forecasts": forecasts,
			"count":     len(forecasts),
		},
		"metadata": metadata(),
	})
}

func metadata() map[string]interface{} {
	return map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
