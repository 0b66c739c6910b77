// Package di provides dependency injection wiring and initialization.
package di

import (
	"time"

	"github.com/aristath/valuator/internal/clients/forecast"
	"github.com/aristath/valuator/internal/clients/xueqiu"
	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/database"
	"github.com/aristath/valuator/internal/modules/export"
	"github.com/aristath/valuator/internal/modules/export/handlers"
	"github.com/aristath/valuator/internal/modules/history"
	"github.com/aristath/valuator/internal/modules/ingestion"
	"github.com/aristath/valuator/internal/modules/valuation"
	"github.com/aristath/valuator/internal/observability"
	"github.com/aristath/valuator/internal/work"
)

// Container holds all dependencies for the application.
// It is created by Wire and owns the database handle.
type Container struct {
	Config   *config.Config
	Location *time.Location

	// Database
	DB *database.DB

	// Repositories
	Store *history.Store

	// Clients
	PriceClient    *xueqiu.Client
	ForecastClient *forecast.Client

	// Services
	SyncService      *ingestion.SyncService
	ValuationService *valuation.Service
	Exporter         *export.Exporter
	Metrics          *observability.Metrics
	Pipeline         *work.Pipeline

	// HTTP
	APIHandler *handlers.Handler

	// only restricts the universe for ad-hoc runs
	only []string
}
