// Package domain provides core domain models and types.
package domain

import "time"

// Trading-day windows used across ingestion and valuation
const (
	TradingDaysPerYear    = 250
	FiveYearsTradingDays  = 5 * TradingDaysPerYear
	TenYearsTradingDays   = 10 * TradingDaysPerYear
	MinValidPEPoints      = 1000
	ForecastDateLayout    = "2006-01-02"
	CalculationDateLayout = "2006-01-02 15:04:05"
)

// PricePoint is one stored trading day for a symbol.
// Timestamp is epoch milliseconds as delivered by the exchange feed.
type PricePoint struct {
	Symbol            string   `json:"symbol"`
	Timestamp         int64    `json:"timestamp"`
	Close             float64  `json:"close"`
	PE                *float64 `json:"pe"`
	MarketCapital     float64  `json:"market_capital"`
	SharesOutstanding float64  `json:"shares_outstanding"`
}

// HasValidPE reports whether the point can take part in PE statistics
func (p PricePoint) HasValidPE() bool {
	return p.PE != nil && *p.PE > 0
}

// SharesOutstanding derives the share count from market cap and close.
// Returns 0 when close is not positive.
func SharesOutstanding(marketCapital, close float64) float64 {
	if close > 0 {
		return marketCapital / close
	}
	return 0
}

// PriceBar is a raw daily record returned by a price source
type PriceBar struct {
	Timestamp     int64
	Close         float64
	PE            *float64
	MarketCapital float64
}

// ProfitForecast is one retrieved net-profit forecast.
// ForecastDate is the retrieval day (YYYY-MM-DD), not the forecasted year.
type ProfitForecast struct {
	Symbol            string     `json:"symbol"`
	ForecastYear      int        `json:"forecast_year"`
	ForecastNetProfit float64    `json:"forecast_net_profit"`
	ForecastDate      string     `json:"forecast_date"`
	CreatedAt         *time.Time `json:"created_at,omitempty"`
}

// ForecastResult is what a forecast source returns for one symbol
type ForecastResult struct {
	Year      int
	NetProfit float64
}

// ValuationSnapshot is the derived valuation for one price anchor and one
// forecast vintage. JSON names match the published artifacts.
type ValuationSnapshot struct {
	Symbol                  string  `json:"symbol"`
	Timestamp               int64   `json:"timestamp"`
	CurrentClose            float64 `json:"current_close"`
	CurrentPE               float64 `json:"current_pe"`
	AvgPE5Y                 float64 `json:"avg_pe_5y"`
	StdPE5Y                 float64 `json:"std_pe_5y"`
	PEPercentile90          float64 `json:"pe_percentile_90"`
	ReasonablePE            float64 `json:"reasonable_pe"`
	PEValuationRatio        float64 `json:"pe_valuation"`
	NetProfitValuationRatio float64 `json:"net_profit_valuation"`
	PEBuyPoint              float64 `json:"pe_buy_point"`
	ProfitBuyPoint          float64 `json:"profit_buy_point"`
	PredictedNetProfit      float64 `json:"predicted_net_profit"`
	ProfitDate              string  `json:"profit_date"`
	CalculationDate         string  `json:"calculation_date"`
}

// SymbolConfig is one entry of the configured universe.
// StdMultiplier is the k used to shift the fair PE below the 5y mean.
type SymbolConfig struct {
	Symbol        string  `json:"symbol" yaml:"symbol"`
	Name          string  `json:"name,omitempty" yaml:"name,omitempty"`
	StdMultiplier float64 `json:"std_multiplier" yaml:"std_multiplier"`
}
