// Package forecast scrapes consensus net-profit forecasts: 10jqka for
// mainland listings and etnet for Hong Kong listings.
package forecast

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/aristath/valuator/pkg/formulas"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/simplifiedchinese"
)

const (
	// DefaultTenJQKAURL is the 10jqka research host
	DefaultTenJQKAURL = "https://basic.10jqka.com.cn"
	// DefaultEtnetURL is the etnet quote host
	DefaultEtnetURL = "https://www.etnet.com.hk"

	tenJQKATableIndex = 1
	etnetTableIndex   = 3

	// 10jqka quotes in 亿元, etnet in 百万
	hundredMillion = 1e8
	million        = 1e6
)

var (
	etnetProfitColumns = []string{"纯利/(亏损) (百万元人民币)", "纯利/(亏损) (百万港元)"}
	userAgent          = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Config holds client settings
type Config struct {
	TenJQKAURL string
	EtnetURL   string
	Timeout    time.Duration
}

// Client fetches forecasts from both sources
type Client struct {
	client     *resty.Client
	tenJQKAURL string
	etnetURL   string
	log        zerolog.Logger
}

// NewClient creates a new forecast client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.TenJQKAURL == "" {
		cfg.TenJQKAURL = DefaultTenJQKAURL
	}
	if cfg.EtnetURL == "" {
		cfg.EtnetURL = DefaultEtnetURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		client: resty.New().
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", userAgent),
		tenJQKAURL: strings.TrimRight(cfg.TenJQKAURL, "/"),
		etnetURL:   strings.TrimRight(cfg.EtnetURL, "/"),
		log:        log.With().Str("client", "forecast").Logger(),
	}
}

// FetchForecast returns the furthest forecast year and its net profit in yuan
func (c *Client) FetchForecast(symbol string) (*domain.ForecastResult, error) {
	var (
		result *domain.ForecastResult
		err    error
	)
	if strings.HasPrefix(strings.ToLower(symbol), "hk") {
		result, err = c.fetchEtnet(symbol)
	} else {
		result, err = c.fetchTenJQKA(symbol)
	}
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("year", result.Year).
		Float64("net_profit", result.NetProfit).
		Msg("Fetched forecast")

	return result, nil
}

func (c *Client) get(url, referer string, params map[string]string) ([]byte, error) {
	resp, err := c.client.R().
		SetHeader("Referer", referer).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast page returned status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func pickTable(body []byte, index int) (Table, error) {
	tables, err := ParseTables(body)
	if err != nil {
		return Table{}, err
	}
	if len(tables) <= index {
		return Table{}, fmt.Errorf("expected at least %d tables, found %d", index+1, len(tables))
	}
	return tables[index], nil
}

// fetchTenJQKA reads the consensus table: forecast = (min + mean) / 2
func (c *Client) fetchTenJQKA(symbol string) (*domain.ForecastResult, error) {
	code := strings.NewReplacer("sz", "", "sh", "").Replace(strings.ToLower(symbol))

	body, err := c.get(fmt.Sprintf("%s/new/%s/worth.html", c.tenJQKAURL, code), fmt.Sprintf("%s/%s", c.tenJQKAURL, code), nil)
	if err != nil {
		return nil, err
	}

	decoded, err := simplifiedchinese.GBK.NewDecoder().Bytes(body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode GBK page: %w", err)
	}

	table, err := pickTable(decoded, tenJQKATableIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	row, ok := table.LastRow()
	if !ok {
		return nil, fmt.Errorf("%s: forecast table is empty", symbol)
	}

	year, err := parseYear(row["年度"])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	minimum, err := parseNumber(row["最小值"])
	if err != nil {
		return nil, fmt.Errorf("%s: minimum: %w", symbol, err)
	}
	mean, err := parseNumber(row["均值"])
	if err != nil {
		return nil, fmt.Errorf("%s: mean: %w", symbol, err)
	}

	return &domain.ForecastResult{
		Year:      year,
		NetProfit: formulas.Round2((minimum + mean) / 2 * hundredMillion),
	}, nil
}

// fetchEtnet reads the profit table, RMB column first, HKD as fallback
func (c *Client) fetchEtnet(symbol string) (*domain.ForecastResult, error) {
	code := strings.NewReplacer("hk", "").Replace(strings.ToLower(symbol))

	body, err := c.get(c.etnetURL+"/www/sc/stocks/realtime/quote_profit.php", c.etnetURL, map[string]string{"code": code})
	if err != nil {
		return nil, err
	}

	table, err := pickTable(body, etnetTableIndex)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	row, ok := table.LastRow()
	if !ok {
		return nil, fmt.Errorf("%s: forecast table is empty", symbol)
	}

	year, err := parseYear(row["财政年度"])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}

	for _, column := range etnetProfitColumns {
		value, present := row[column]
		if !present {
			continue
		}
		profit, err := parseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", symbol, column, err)
		}
		return &domain.ForecastResult{Year: year, NetProfit: profit * million}, nil
	}

	return nil, fmt.Errorf("%s: no net profit column in forecast table", symbol)
}
