package ingestion

import (
	"errors"
	"fmt"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/rs/zerolog"
)

// ErrNoPriceData is returned when a source answers with an empty series
var ErrNoPriceData = errors.New("no price data returned")

// PriceStore is the part of the history store used for price ingestion
type PriceStore interface {
	HasAnyData(symbol string) (bool, error)
	UpsertPricePoints(symbol string, bars []domain.PriceBar) (int, error)
}

// ForecastStore is the part of the history store used for forecast ingestion
type ForecastStore interface {
	UpsertProfitForecast(f domain.ProfitForecast) error
}

// Sleeper pauses between symbols
type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// SyncSummary counts the outcome of one ingestion pass
type SyncSummary struct {
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Points    int               `json:"points"`
	Failures  map[string]string `json:"failures,omitempty"`
}

func (s *SyncSummary) fail(symbol string, err error) {
	s.Failed++
	if s.Failures == nil {
		s.Failures = make(map[string]string)
	}
	s.Failures[symbol] = err.Error()
}

// Options tune a SyncService
type Options struct {
	// Delay is the fixed pause between symbols; none after the last one
	Delay time.Duration
	// Strict aborts the run on the first fetch failure
	Strict bool
	// Location is used to stamp forecast retrieval dates
	Location *time.Location
}

// SyncService ingests prices and forecasts one symbol at a time
type SyncService struct {
	prices        domain.PriceFetcher
	forecasts     domain.ForecastFetcher
	priceStore    PriceStore
	forecastStore ForecastStore
	opts          Options
	sleeper       Sleeper
	now           func() time.Time
	log           zerolog.Logger
}

// NewSyncService creates a new ingestion service
func NewSyncService(
	prices domain.PriceFetcher,
	forecasts domain.ForecastFetcher,
	priceStore PriceStore,
	forecastStore ForecastStore,
	opts Options,
	log zerolog.Logger,
) *SyncService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &SyncService{
		prices:        prices,
		forecasts:     forecasts,
		priceStore:    priceStore,
		forecastStore: forecastStore,
		opts:          opts,
		sleeper:       realSleeper{},
		now:           time.Now,
		log:           log.With().Str("service", "ingestion").Logger(),
	}
}

// SetSleeper replaces the real sleep, used in tests
func (s *SyncService) SetSleeper(sleeper Sleeper) {
	s.sleeper = sleeper
}

// SetClock replaces time.Now
func (s *SyncService) SetClock(now func() time.Time) {
	s.now = now
}

// SyncPrices fetches and stores price bars for every symbol in order.
// Storage errors always abort; fetch errors abort only in strict mode.
func (s *SyncService) SyncPrices(symbols []string) (SyncSummary, error) {
	summary := SyncSummary{Total: len(symbols)}

	s.log.Info().Int("symbols", len(symbols)).Msg("Starting price sync")

	for i, symbol := range symbols {
		s.log.Info().
			Str("symbol", symbol).
			Int("index", i+1).
			Int("total", len(symbols)).
			Msg("Syncing prices")

		n, err := s.syncPricesForSymbol(symbol)
		if err != nil {
			if domain.IsStorageError(err) {
				return summary, err
			}
			summary.fail(symbol, err)
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Price fetch failed")
			if s.opts.Strict {
				return summary, fmt.Errorf("price sync aborted at %s: %w", symbol, err)
			}
		} else {
			summary.Succeeded++
			summary.Points += n
		}

		if i < len(symbols)-1 && s.opts.Delay > 0 {
			s.sleeper.Sleep(s.opts.Delay)
		}
	}

	s.log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("points", summary.Points).
		Msg("Price sync completed")

	return summary, nil
}

func (s *SyncService) syncPricesForSymbol(symbol string) (int, error) {
	hasData, err := s.priceStore.HasAnyData(symbol)
	if err != nil {
		return 0, err
	}

	count := PlanRequestSize(symbol, hasData)
	if hasData {
		s.log.Debug().Str("symbol", symbol).Int("count", count).Msg("Data exists, fetching latest increment")
	} else {
		s.log.Info().Str("symbol", symbol).Int("count", count).Msg("No data found, performing full backfill")
	}

	bars, err := s.prices.FetchPrices(symbol, count)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch prices for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return 0, fmt.Errorf("%s: %w", symbol, ErrNoPriceData)
	}

	n, err := s.priceStore.UpsertPricePoints(symbol, bars)
	if err != nil {
		return 0, err
	}

	latest := bars[0]
	for _, b := range bars[1:] {
		if b.Timestamp > latest.Timestamp {
			latest = b
		}
	}
	s.log.Info().
		Str("symbol", symbol).
		Int("count", n).
		Str("latest", time.UnixMilli(latest.Timestamp).In(s.opts.Location).Format(domain.ForecastDateLayout)).
		Msg("Stored price points")

	return n, nil
}

// SyncForecasts fetches the latest forecast for every symbol and stores it
// under today's retrieval date
func (s *SyncService) SyncForecasts(symbols []string) (SyncSummary, error) {
	summary := SyncSummary{Total: len(symbols)}

	s.log.Info().Int("symbols", len(symbols)).Msg("Starting forecast sync")

	for i, symbol := range symbols {
		err := s.syncForecastForSymbol(symbol)
		if err != nil {
			if domain.IsStorageError(err) {
				return summary, err
			}
			summary.fail(symbol, err)
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Forecast fetch failed")
			if s.opts.Strict {
				return summary, fmt.Errorf("forecast sync aborted at %s: %w", symbol, err)
			}
		} else {
			summary.Succeeded++
		}

		if i < len(symbols)-1 && s.opts.Delay > 0 {
			s.sleeper.Sleep(s.opts.Delay)
		}
	}

	s.log.Info().
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Msg("Forecast sync completed")

	return summary, nil
}

func (s *SyncService) syncForecastForSymbol(symbol string) error {
	result, err := s.forecasts.FetchForecast(symbol)
	if err != nil {
		return fmt.Errorf("failed to fetch forecast for %s: %w", symbol, err)
	}
	if result == nil || result.Year == 0 || result.NetProfit == 0 {
		return fmt.Errorf("%s: %w", symbol, domain.ErrForecastUnavailable)
	}

	forecast := domain.ProfitForecast{
		Symbol:            symbol,
		ForecastYear:      result.Year,
		ForecastNetProfit: result.NetProfit,
		ForecastDate:      s.now().In(s.opts.Location).Format(domain.ForecastDateLayout),
	}
	if err := s.forecastStore.UpsertProfitForecast(forecast); err != nil {
		return err
	}

	s.log.Info().
		Str("symbol", symbol).
		Int("year", result.Year).
		Float64("net_profit_billion", result.NetProfit/1e8).
		Msg("Stored profit forecast")

	return nil
}
