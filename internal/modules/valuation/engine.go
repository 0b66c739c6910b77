// Package valuation derives fair-value PE bands and buy points from stored
// price history and the latest profit forecast.
package valuation

import (
	"fmt"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/pkg/formulas"
)

const (
	// WindowSize is the number of most recent valid rows in the 5y statistics
	WindowSize = domain.FiveYearsTradingDays
	// MinValidPoints is the minimum number of valid PE rows to value a symbol
	MinValidPoints = domain.MinValidPEPoints
	// PercentileLevel is the quantile reported as pe_percentile_90
	PercentileLevel = 0.9
	// FuturePEDiscount compresses the fair PE for the forward profit valuation
	FuturePEDiscount = 0.8
	// HighPEThreshold splits the two buy-point discount factors
	HighPEThreshold = 20.0
	// HighPEFactor applies when reasonable PE >= HighPEThreshold
	HighPEFactor = 0.5
	// LowPEFactor applies below HighPEThreshold
	LowPEFactor = 0.6
)

// ValidPEPoints filters history to rows with a positive PE, keeping order
func ValidPEPoints(history []domain.PricePoint) []domain.PricePoint {
	valid := make([]domain.PricePoint, 0, len(history))
	for _, p := range history {
		if p.HasValidPE() {
			valid = append(valid, p)
		}
	}
	return valid
}

// ReasonablePE shifts the mean down by k standard deviations and averages
// the result with the unadjusted mean
func ReasonablePE(avg, std, k float64) float64 {
	return ((avg - std*k) + avg) / 2
}

// PEValuationRatio is current PE over reasonable PE, 0 when reasonable PE <= 0
func PEValuationRatio(currentPE, reasonablePE float64) float64 {
	if reasonablePE <= 0 {
		return 0
	}
	return currentPE / reasonablePE
}

// NetProfitValuationRatio compares today's market cap with the value implied
// by the forecast profit at 80% of the reasonable PE.
// Returns 0 when reasonable PE <= 0. Callers must reject non-positive profit.
func NetProfitValuationRatio(marketCap, reasonablePE, netProfit float64) float64 {
	if reasonablePE <= 0 {
		return 0
	}
	return marketCap / (reasonablePE * FuturePEDiscount * netProfit)
}

// BuyPointFactor returns the discount applied to buy points
func BuyPointFactor(reasonablePE float64) float64 {
	if reasonablePE >= HighPEThreshold {
		return HighPEFactor
	}
	return LowPEFactor
}

// BuyPoint is close / ratio * factor, 0 for a degenerate ratio
func BuyPoint(close, ratio, factor float64) float64 {
	if ratio <= 0 {
		return 0
	}
	return close / ratio * factor
}

// Compute derives a snapshot for one symbol.
// history must be ordered newest first, as returned by the store.
// stdMultiplier is the per-symbol k; now stamps calculation_date.
func Compute(symbol string, history []domain.PricePoint, forecast *domain.ProfitForecast, stdMultiplier float64, now time.Time) (*domain.ValuationSnapshot, error) {
	valid := ValidPEPoints(history)
	if len(valid) < MinValidPoints {
		return nil, &domain.InsufficientDataError{Symbol: symbol, Valid: len(valid), Required: MinValidPoints}
	}
	if forecast == nil {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrForecastUnavailable)
	}
	if forecast.ForecastNetProfit <= 0 {
		return nil, fmt.Errorf("%s: forecast %d is %.2f: %w", symbol, forecast.ForecastYear, forecast.ForecastNetProfit, domain.ErrInvalidForecast)
	}

	latest := valid[0]

	all := make([]float64, len(valid))
	for i, p := range valid {
		all[i] = *p.PE
	}
	window := all
	if len(window) > WindowSize {
		window = window[:WindowSize]
	}

	avg, std := formulas.MeanStdDev(window)
	reasonable := ReasonablePE(avg, std, stdMultiplier)

	peRatio := PEValuationRatio(*latest.PE, reasonable)
	profitRatio := NetProfitValuationRatio(latest.MarketCapital, reasonable, forecast.ForecastNetProfit)
	factor := BuyPointFactor(reasonable)

	return &domain.ValuationSnapshot{
		Symbol:                  symbol,
		Timestamp:               latest.Timestamp,
		CurrentClose:            latest.Close,
		CurrentPE:               *latest.PE,
		AvgPE5Y:                 avg,
		StdPE5Y:                 std,
		PEPercentile90:          formulas.Percentile(all, PercentileLevel),
		ReasonablePE:            reasonable,
		PEValuationRatio:        peRatio,
		NetProfitValuationRatio: profitRatio,
		PEBuyPoint:              BuyPoint(latest.Close, peRatio, factor),
		ProfitBuyPoint:          BuyPoint(latest.Close, profitRatio, factor),
		PredictedNetProfit:      forecast.ForecastNetProfit,
		ProfitDate:              forecast.ForecastDate,
		CalculationDate:         now.Format(domain.CalculationDateLayout),
	}, nil
}
