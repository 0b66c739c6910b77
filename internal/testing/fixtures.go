package testing

import (
	"time"

	"github.com/aristath/valuator/internal/domain"
)

// DayMillis is one calendar day in epoch milliseconds
const DayMillis = int64(24 * time.Hour / time.Millisecond)

// BaseTimestamp is 2020-01-02 00:00 Asia/Shanghai in epoch milliseconds
const BaseTimestamp = int64(1577894400000)

// PE returns a pointer to v
func PE(v float64) *float64 {
	return &v
}

// NewPriceBars builds n ascending daily bars starting at BaseTimestamp.
// PE cycles through 10..19 so statistics over the series are non-degenerate.
func NewPriceBars(n int) []domain.PriceBar {
	bars := make([]domain.PriceBar, 0, n)
	for i := 0; i < n; i++ {
		close := 10 + float64(i%7)
		bars = append(bars, domain.PriceBar{
			Timestamp:     BaseTimestamp + int64(i)*DayMillis,
			Close:         close,
			PE:            PE(10 + float64(i%10)),
			MarketCapital: close * 1e9,
		})
	}
	return bars
}

// NewPriceHistory builds n stored points in descending timestamp order,
// the order returned by the store. Every point has PE = pe.
func NewPriceHistory(symbol string, n int, pe float64) []domain.PricePoint {
	points := make([]domain.PricePoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		points = append(points, domain.PricePoint{
			Symbol:            symbol,
			Timestamp:         BaseTimestamp + int64(i)*DayMillis,
			Close:             20,
			PE:                PE(pe),
			MarketCapital:     2e10,
			SharesOutstanding: 1e9,
		})
	}
	return points
}

// NewForecast returns a stored forecast retrieved on date
func NewForecast(symbol string, year int, netProfit float64, date string) *domain.ProfitForecast {
	return &domain.ProfitForecast{
		Symbol:            symbol,
		ForecastYear:      year,
		ForecastNetProfit: netProfit,
		ForecastDate:      date,
	}
}

// NewSymbolFixtures returns a small ordered universe
func NewSymbolFixtures() []domain.SymbolConfig {
	return []domain.SymbolConfig{
		{Symbol: "SH600519", Name: "贵州茅台", StdMultiplier: 1},
		{Symbol: "SZ000858", Name: "五粮液", StdMultiplier: 1.5},
		{Symbol: "hk00700", Name: "腾讯控股", StdMultiplier: 0.5},
	}
}
