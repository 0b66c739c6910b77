// Package history provides the durable time-series store for price points,
// profit forecasts and valuation snapshots.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/pkg/formulas"
	"github.com/rs/zerolog"
)

// Store provides access to the valuation database.
// Every write is its own transaction: commit on success, rollback on failure.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a new store on an open connection
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("component", "history_store").Logger(),
	}
}

// fail logs and wraps a storage failure
func (s *Store) fail(op, symbol string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("symbol", symbol).Msg("Storage operation failed")
	return &domain.StorageError{Op: op, Symbol: symbol, Err: err}
}

const upsertPriceSQL = `
	INSERT OR REPLACE INTO stock_basic_data
	(symbol, timestamp, close, pe, market_capital, shares_outstanding)
	VALUES (?, ?, ?, ?, ?, ?)
`

// UpsertPricePoint writes one trading day, replacing any row with the same
// (symbol, timestamp)
func (s *Store) UpsertPricePoint(symbol string, timestamp int64, close float64, pe *float64, marketCap float64) error {
	_, err := s.UpsertPricePoints(symbol, []domain.PriceBar{{
		Timestamp:     timestamp,
		Close:         close,
		PE:            pe,
		MarketCapital: marketCap,
	}})
	return err
}

// UpsertPricePoints writes a batch in a single transaction.
// The first failing row rolls back the whole batch.
func (s *Store) UpsertPricePoints(symbol string, bars []domain.PriceBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, s.fail("begin price upsert", symbol, err)
	}
	defer tx.Rollback() // no-op after Commit

	stmt, err := tx.Prepare(upsertPriceSQL)
	if err != nil {
		return 0, s.fail("prepare price upsert", symbol, err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		pe := sql.NullFloat64{}
		if bar.PE != nil {
			pe = sql.NullFloat64{Float64: *bar.PE, Valid: true}
		}

		_, err := stmt.Exec(
			symbol,
			bar.Timestamp,
			bar.Close,
			pe,
			bar.MarketCapital,
			domain.SharesOutstanding(bar.MarketCapital, bar.Close),
		)
		if err != nil {
			return 0, s.fail(fmt.Sprintf("upsert price point %d", bar.Timestamp), symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, s.fail("commit price upsert", symbol, err)
	}

	s.log.Debug().
		Str("symbol", symbol).
		Int("count", len(bars)).
		Msg("Upserted price points")

	return len(bars), nil
}

// HasAnyData reports whether any price point exists for symbol
func (s *Store) HasAnyData(symbol string) (bool, error) {
	var exists int
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM stock_basic_data WHERE symbol = ?)", symbol).Scan(&exists)
	if err != nil {
		return false, s.fail("check price data", symbol, err)
	}
	return exists == 1, nil
}

// QueryPriceHistory returns at most limit points, newest first.
// limit <= 0 returns the full history.
func (s *Store) QueryPriceHistory(symbol string, limit int) ([]domain.PricePoint, error) {
	query := `
		SELECT symbol, timestamp, close, pe, market_capital, shares_outstanding
		FROM stock_basic_data
		WHERE symbol = ?
		ORDER BY timestamp DESC
	`
	args := []interface{}{symbol}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, s.fail("query price history", symbol, err)
	}
	defer rows.Close()

	points := make([]domain.PricePoint, 0)
	for rows.Next() {
		var p domain.PricePoint
		var pe, marketCap, shares sql.NullFloat64

		if err := rows.Scan(&p.Symbol, &p.Timestamp, &p.Close, &pe, &marketCap, &shares); err != nil {
			return nil, s.fail("scan price point", symbol, err)
		}
		if pe.Valid {
			v := pe.Float64
			p.PE = &v
		}
		p.MarketCapital = marketCap.Float64
		p.SharesOutstanding = shares.Float64

		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, s.fail("iterate price history", symbol, err)
	}

	return points, nil
}

// UpsertProfitForecast writes a forecast, replacing a same-day re-fetch of
// the same year
func (s *Store) UpsertProfitForecast(f domain.ProfitForecast) error {
	tx, err := s.db.Begin()
	if err != nil {
		return s.fail("begin forecast upsert", f.Symbol, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO stock_profit_forecast
		(symbol, forecast_year, forecast_net_profit, forecast_date, created_at)
		VALUES (?, ?, ?, ?, datetime('now'))
	`, f.Symbol, f.ForecastYear, f.ForecastNetProfit, f.ForecastDate)
	if err != nil {
		return s.fail("upsert profit forecast", f.Symbol, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("commit forecast upsert", f.Symbol, err)
	}

	s.log.Debug().
		Str("symbol", f.Symbol).
		Int("year", f.ForecastYear).
		Float64("net_profit", f.ForecastNetProfit).
		Msg("Upserted profit forecast")

	return nil
}

const forecastColumns = `symbol, forecast_year, forecast_net_profit, forecast_date, created_at`

func scanForecast(scan func(dest ...interface{}) error) (domain.ProfitForecast, error) {
	var f domain.ProfitForecast
	var createdAt sql.NullString

	if err := scan(&f.Symbol, &f.ForecastYear, &f.ForecastNetProfit, &f.ForecastDate, &createdAt); err != nil {
		return f, err
	}
	if createdAt.Valid {
		if t, err := time.Parse("2006-01-02 15:04:05", createdAt.String); err == nil {
			t = t.UTC()
			f.CreatedAt = &t
		}
	}
	return f, nil
}

// LatestProfitForecast returns the most recently retrieved forecast,
// tie-broken by the latest forecast year. Returns nil if none exists (not an error).
func (s *Store) LatestProfitForecast(symbol string) (*domain.ProfitForecast, error) {
	row := s.db.QueryRow(`
		SELECT `+forecastColumns+`
		FROM stock_profit_forecast
		WHERE symbol = ?
		ORDER BY forecast_date DESC, forecast_year DESC
		LIMIT 1
	`, symbol)

	f, err := scanForecast(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, s.fail("query latest forecast", symbol, err)
	}
	return &f, nil
}

// ProfitForecasts returns the forecast history for symbol, newest first
func (s *Store) ProfitForecasts(symbol string) ([]domain.ProfitForecast, error) {
	rows, err := s.db.Query(`
		SELECT `+forecastColumns+`
		FROM stock_profit_forecast
		WHERE symbol = ?
		ORDER BY forecast_date DESC, forecast_year DESC
	`, symbol)
	if err != nil {
		return nil, s.fail("query forecasts", symbol, err)
	}
	defer rows.Close()

	forecasts := make([]domain.ProfitForecast, 0)
	for rows.Next() {
		f, err := scanForecast(rows.Scan)
		if err != nil {
			return nil, s.fail("scan forecast", symbol, err)
		}
		forecasts = append(forecasts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, s.fail("iterate forecasts", symbol, err)
	}

	return forecasts, nil
}

// UpsertValuationSnapshot writes a snapshot keyed on (symbol, timestamp, profit_date).
// Numeric fields are rounded to 2 decimal places here.
func (s *Store) UpsertValuationSnapshot(v domain.ValuationSnapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return s.fail("begin valuation upsert", v.Symbol, err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO stock_valuation
		(symbol, timestamp, current_close, current_pe, avg_pe_5y, std_pe_5y,
		 pe_percentile_90, reasonable_pe, pe_valuation, net_profit_valuation,
		 pe_buy_point, profit_buy_point, predicted_net_profit, profit_date, calculation_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		v.Symbol,
		v.Timestamp,
		formulas.Round2(v.CurrentClose),
		formulas.Round2(v.CurrentPE),
		formulas.Round2(v.AvgPE5Y),
		formulas.Round2(v.StdPE5Y),
		formulas.Round2(v.PEPercentile90),
		formulas.Round2(v.ReasonablePE),
		formulas.Round2(v.PEValuationRatio),
		formulas.Round2(v.NetProfitValuationRatio),
		formulas.Round2(v.PEBuyPoint),
		formulas.Round2(v.ProfitBuyPoint),
		formulas.Round2(v.PredictedNetProfit),
		v.ProfitDate,
		v.CalculationDate,
	)
	if err != nil {
		return s.fail("upsert valuation snapshot", v.Symbol, err)
	}

	if err := tx.Commit(); err != nil {
		return s.fail("commit valuation upsert", v.Symbol, err)
	}

	return nil
}

// AllValuationSnapshots returns every snapshot ordered by symbol, then
// newest timestamp first. Ties on timestamp keep forecast vintages in date order.
func (s *Store) AllValuationSnapshots() ([]domain.ValuationSnapshot, error) {
	rows, err := s.db.Query(`
		SELECT symbol, timestamp, current_close, current_pe, avg_pe_5y, std_pe_5y,
		       pe_percentile_90, reasonable_pe, pe_valuation, net_profit_valuation,
		       pe_buy_point, profit_buy_point, predicted_net_profit, profit_date, calculation_date
		FROM stock_valuation
		ORDER BY symbol, timestamp DESC, profit_date ASC
	`)
	if err != nil {
		return nil, s.fail("query valuation snapshots", "", err)
	}
	defer rows.Close()

	snapshots := make([]domain.ValuationSnapshot, 0)
	for rows.Next() {
		var v domain.ValuationSnapshot
		var nums [11]sql.NullFloat64

		err := rows.Scan(
			&v.Symbol, &v.Timestamp,
			&nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5],
			&nums[6], &nums[7], &nums[8], &nums[9], &nums[10],
			&v.ProfitDate, &v.CalculationDate,
		)
		if err != nil {
			return nil, s.fail("scan valuation snapshot", "", err)
		}

		v.CurrentClose = nums[0].Float64
		v.CurrentPE = nums[1].Float64
		v.AvgPE5Y = nums[2].Float64
		v.StdPE5Y = nums[3].Float64
		v.PEPercentile90 = nums[4].Float64
		v.ReasonablePE = nums[5].Float64
		v.PEValuationRatio = nums[6].Float64
		v.NetProfitValuationRatio = nums[7].Float64
		v.PEBuyPoint = nums[8].Float64
		v.ProfitBuyPoint = nums[9].Float64
		v.PredictedNetProfit = nums[10].Float64

		snapshots = append(snapshots, v)
	}

	if err := rows.Err(); err != nil {
		return nil, s.fail("iterate valuation snapshots", "", err)
	}

	return snapshots, nil
}
