package di

import (
	"github.com/aristath/valuator/internal/clients/forecast"
	"github.com/aristath/valuator/internal/clients/xueqiu"
	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/internal/modules/export"
	"github.com/aristath/valuator/internal/modules/export/handlers"
	"github.com/aristath/valuator/internal/modules/history"
	"github.com/aristath/valuator/internal/modules/ingestion"
	"github.com/aristath/valuator/internal/modules/valuation"
	"github.com/aristath/valuator/internal/observability"
	"github.com/aristath/valuator/internal/work"
	"github.com/rs/zerolog"
)

// InitializeServices creates the store, clients and services
func InitializeServices(container *Container, log zerolog.Logger) error {
	cfg := container.Config

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	container.Location = loc

	container.Store = history.NewStore(container.DB.Conn(), log)

	container.PriceClient = xueqiu.NewClient(xueqiu.Config{
		BaseURL: cfg.XueqiuBaseURL,
		Cookie:  cfg.XueqiuCookie,
		Timeout: cfg.FetchTimeout,
	}, log)

	container.ForecastClient = forecast.NewClient(forecast.Config{
		TenJQKAURL: cfg.TenJQKAURL,
		EtnetURL:   cfg.EtnetURL,
		Timeout:    cfg.FetchTimeout,
	}, log)

	container.SyncService = ingestion.NewSyncService(
		container.PriceClient,
		container.ForecastClient,
		container.Store,
		container.Store,
		ingestion.Options{
			Delay:    cfg.FetchDelay,
			Strict:   cfg.StrictFetch,
			Location: loc,
		},
		log,
	)

	container.ValuationService = valuation.NewService(container.Store, cfg.HistoryLimit, loc, log)

	container.Exporter = export.NewExporter(container.Store, cfg.OutputDir, loc, log)
	container.Exporter.EnableWorkbook(cfg.WriteWorkbook)

	container.Metrics = observability.NewMetrics()

	container.Pipeline = work.NewPipeline(
		container.LoadSymbols,
		container.SyncService,
		container.ValuationService,
		container.Exporter,
		container.Metrics,
		log,
	)
	container.Pipeline.SetExportUniverse(container.LoadUniverse)
	if cfg.MetricsTextfile != "" {
		container.Pipeline.SetMetricsTextfile(cfg.MetricsTextfile)
	}

	container.APIHandler = handlers.NewHandler(
		container.Exporter,
		container.Store,
		container.symbolOrder(log),
		log,
	)

	return nil
}

// LoadSymbols reads the symbol list, restricted by SetOnly when set
func (c *Container) LoadSymbols() ([]domain.SymbolConfig, error) {
	symbols, err := c.LoadUniverse()
	if err != nil {
		return nil, err
	}
	return config.SelectSymbols(symbols, c.only)
}

// LoadUniverse reads the full symbol list, ignoring SetOnly
func (c *Container) LoadUniverse() ([]domain.SymbolConfig, error) {
	return config.LoadSymbols(c.Config.SymbolsFile)
}

// SetOnly restricts runs to the named symbols
func (c *Container) SetOnly(symbols []string) {
	c.only = symbols
}

// symbolOrder re-reads the list per request so edits show up without a restart
func (c *Container) symbolOrder(log zerolog.Logger) handlers.SymbolSource {
	return func() []string {
		symbols, err := c.LoadUniverse()
		if err != nil {
			log.Error().Err(err).Msg("Failed to load symbol list")
			return nil
		}
		return config.SymbolCodes(symbols)
	}
}
