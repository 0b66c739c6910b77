package valuation

import (
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/rs/zerolog"
)

// Store is the part of the history store the valuation service needs
type Store interface {
	QueryPriceHistory(symbol string, limit int) ([]domain.PricePoint, error)
	LatestProfitForecast(symbol string) (*domain.ProfitForecast, error)
	UpsertValuationSnapshot(v domain.ValuationSnapshot) error
}

// Service runs the engine over the configured universe and persists snapshots
type Service struct {
	store        Store
	historyLimit int
	location     *time.Location
	now          func() time.Time
	log          zerolog.Logger
}

// NewService creates a valuation service.
// historyLimit <= 0 reads the full stored history.
func NewService(store Store, historyLimit int, location *time.Location, log zerolog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		store:        store,
		historyLimit: historyLimit,
		location:     location,
		now:          time.Now,
		log:          log.With().Str("service", "valuation").Logger(),
	}
}

// SetClock replaces time.Now
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ProcessSymbol values one symbol. Skips come back as an Outcome with a nil
// error; a storage failure is returned as the error.
func (s *Service) ProcessSymbol(cfg domain.SymbolConfig) (Outcome, error) {
	history, err := s.store.QueryPriceHistory(cfg.Symbol, s.historyLimit)
	if err != nil {
		return Outcome{Symbol: cfg.Symbol, Status: StatusFailed, Reason: ReasonStorage, Err: err}, err
	}

	forecast, err := s.store.LatestProfitForecast(cfg.Symbol)
	if err != nil {
		return Outcome{Symbol: cfg.Symbol, Status: StatusFailed, Reason: ReasonStorage, Err: err}, err
	}

	snapshot, err := Compute(cfg.Symbol, history, forecast, cfg.StdMultiplier, s.now().In(s.location))
	if err != nil {
		if outcome, ok := classify(cfg.Symbol, err); ok {
			s.log.Warn().
				Str("symbol", cfg.Symbol).
				Str("reason", outcome.Reason).
				Err(err).
				Msg("Skipping valuation")
			return outcome, nil
		}
		return Outcome{Symbol: cfg.Symbol, Status: StatusFailed, Err: err}, err
	}

	if err := s.store.UpsertValuationSnapshot(*snapshot); err != nil {
		return Outcome{Symbol: cfg.Symbol, Status: StatusFailed, Reason: ReasonStorage, Err: err}, err
	}

	s.log.Info().
		Str("symbol", cfg.Symbol).
		Float64("reasonable_pe", snapshot.ReasonablePE).
		Float64("pe_valuation", snapshot.PEValuationRatio).
		Float64("net_profit_valuation", snapshot.NetProfitValuationRatio).
		Msg("Valuation computed")

	return Outcome{Symbol: cfg.Symbol, Status: StatusOK, Snapshot: snapshot}, nil
}

// ProcessAll values every symbol in order. It stops at the first storage
// failure and returns the summary so far with the error.
func (s *Service) ProcessAll(symbols []domain.SymbolConfig) (Summary, error) {
	summary := Summary{Total: len(symbols)}

	s.log.Info().Int("symbols", len(symbols)).Msg("Starting valuation")

	for _, cfg := range symbols {
		outcome, err := s.ProcessSymbol(cfg)
		summary.Add(outcome)
		if err != nil {
			s.log.Error().Err(err).Str("symbol", cfg.Symbol).Msg("Valuation aborted")
			return summary, err
		}
	}

	s.log.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("total", summary.Total).
		Msg("Valuation completed")

	return summary, nil
}
