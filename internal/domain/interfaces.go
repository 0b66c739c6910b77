package domain

// PriceFetcher returns the most recent count daily bars for a symbol
type PriceFetcher interface {
	FetchPrices(symbol string, count int) ([]PriceBar, error)
}

// ForecastFetcher returns the latest net-profit forecast for a symbol
type ForecastFetcher interface {
	FetchForecast(symbol string) (*ForecastResult, error)
}
