package testing

import (
	"errors"
	"sync"
	"time"

	"github.com/aristath/valuator/internal/domain"
)

// MockPriceFetcher is a mock implementation of domain.PriceFetcher for testing
type MockPriceFetcher struct {
	mu     sync.Mutex
	bars   map[string][]domain.PriceBar
	errs   map[string]error
	Calls  []PriceCall
	errAll error
}

// PriceCall records one FetchPrices invocation
type PriceCall struct {
	Symbol string
	Count  int
}

// NewMockPriceFetcher creates a new mock price fetcher
func NewMockPriceFetcher() *MockPriceFetcher {
	return &MockPriceFetcher{
		bars: make(map[string][]domain.PriceBar),
		errs: make(map[string]error),
	}
}

// SetBars sets the bars returned for a symbol
func (m *MockPriceFetcher) SetBars(symbol string, bars []domain.PriceBar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bars[symbol] = bars
}

// SetError makes FetchPrices fail for symbol, or for every symbol when symbol is empty
func (m *MockPriceFetcher) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if symbol == "" {
		m.errAll = err
		return
	}
	m.errs[symbol] = err
}

// FetchPrices returns the configured bars, truncated to the last count
func (m *MockPriceFetcher) FetchPrices(symbol string, count int) ([]domain.PriceBar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, PriceCall{Symbol: symbol, Count: count})
	if m.errAll != nil {
		return nil, m.errAll
	}
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	bars := m.bars[symbol]
	if count > 0 && len(bars) > count {
		bars = bars[len(bars)-count:]
	}
	return bars, nil
}

// MockForecastFetcher is a mock implementation of domain.ForecastFetcher for testing
type MockForecastFetcher struct {
	mu        sync.Mutex
	forecasts map[string]*domain.ForecastResult
	errs      map[string]error
	Calls     []string
}

// NewMockForecastFetcher creates a new mock forecast fetcher
func NewMockForecastFetcher() *MockForecastFetcher {
	return &MockForecastFetcher{
		forecasts: make(map[string]*domain.ForecastResult),
		errs:      make(map[string]error),
	}
}

// SetForecast sets the forecast returned for a symbol
func (m *MockForecastFetcher) SetForecast(symbol string, year int, netProfit float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forecasts[symbol] = &domain.ForecastResult{Year: year, NetProfit: netProfit}
}

// SetError makes FetchForecast fail for symbol
func (m *MockForecastFetcher) SetError(symbol string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[symbol] = err
}

// FetchForecast returns the configured forecast
func (m *MockForecastFetcher) FetchForecast(symbol string) (*domain.ForecastResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, symbol)
	if err := m.errs[symbol]; err != nil {
		return nil, err
	}
	f, ok := m.forecasts[symbol]
	if !ok {
		return nil, errors.New("no forecast configured")
	}
	return f, nil
}

// RecordingSleeper records requested delays instead of sleeping
type RecordingSleeper struct {
	mu     sync.Mutex
	Delays []time.Duration
}

// Sleep records d
func (s *RecordingSleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Delays = append(s.Delays, d)
}

// Count returns how many times Sleep was called
func (s *RecordingSleeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Delays)
}
