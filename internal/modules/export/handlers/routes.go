package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the read-only valuation routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/valuations", func(r chi.Router) {
		r.Get("/", h.HandleGetValuations)
		r.Get("/{symbol}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetValuationSeries(w, r, chi.URLParam(r, "symbol"))
		})
	})

	r.Get("/prices/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetPrices(w, r, chi.URLParam(r, "symbol"))
	})

	r.Get("/forecasts/{symbol}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleGetForecasts(w, r, chi.URLParam(r, "symbol"))
	})
}
