// Package xueqiu fetches daily kline series with PE and market cap indicators.
package xueqiu

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/valuator/internal/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public quote host
	DefaultBaseURL = "https://stock.xueqiu.com"
	klinePath      = "/v5/stock/chart/kline.json"
	// the first bars of every response carry incomplete indicators
	skipLeading = 4
	// legacy row layout: timestamp .. close(5) .. pe(12), market_capital(13)
	legacyRowWidth = 14
)

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Accept":          "application/json, text/plain, */*",
	"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
	"Referer":         "https://xueqiu.com/",
}

// Config holds client settings
type Config struct {
	BaseURL string
	Cookie  string
	Timeout time.Duration
}

// Client for the xueqiu kline endpoint
type Client struct {
	client *resty.Client
	now    func() time.Time
	log    zerolog.Logger
}

// NewClient creates a new kline client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeaders(browserHeaders)
	if cfg.Cookie != "" {
		client.SetHeader("Cookie", cfg.Cookie)
	}

	return &Client{
		client: client,
		now:    time.Now,
		log:    log.With().Str("client", "xueqiu").Logger(),
	}
}

type klineResponse struct {
	Data struct {
		Symbol string       `json:"symbol"`
		Column []string     `json:"column"`
		Item   [][]*float64 `json:"item"`
	} `json:"data"`
	ErrorCode        int    `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

// APISymbol strips the hk prefix used in the symbol list
func APISymbol(symbol string) string {
	return strings.NewReplacer("hk", "", "HK", "").Replace(symbol)
}

// FetchPrices requests the latest count daily bars ending tomorrow
func (c *Client) FetchPrices(symbol string, count int) ([]domain.PriceBar, error) {
	begin := c.now().Add(24 * time.Hour).UnixMilli()

	resp, err := c.client.R().
		SetQueryParams(map[string]string{
			"symbol":    APISymbol(symbol),
			"begin":     strconv.FormatInt(begin, 10),
			"period":    "day",
			"type":      "before",
			"count":     strconv.Itoa(-count),
			"indicator": "kline,pe,market_capital",
		}).
		Get(klinePath)
	if err != nil {
		return nil, fmt.Errorf("kline request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("kline API returned status %d", resp.StatusCode())
	}

	var kline klineResponse
	if err := json.Unmarshal(resp.Body(), &kline); err != nil {
		return nil, fmt.Errorf("failed to parse kline response: %w", err)
	}
	if kline.ErrorCode != 0 {
		return nil, fmt.Errorf("kline API error %d: %s", kline.ErrorCode, kline.ErrorDescription)
	}

	bars := parseItems(kline.Data.Column, kline.Data.Item)

	c.log.Debug().
		Str("symbol", symbol).
		Int("requested", count).
		Int("items", len(kline.Data.Item)).
		Int("bars", len(bars)).
		Msg("Fetched kline")

	return bars, nil
}

type columnIndex struct {
	timestamp, close, pe, marketCap int
	width                           int
}

func indexColumns(columns []string) (columnIndex, bool) {
	idx := columnIndex{timestamp: -1, close: -1, pe: -1, marketCap: -1, width: len(columns)}
	for i, name := range columns {
		switch name {
		case "timestamp":
			idx.timestamp = i
		case "close":
			idx.close = i
		case "pe":
			idx.pe = i
		case "market_capital":
			idx.marketCap = i
		}
	}
	ok := idx.timestamp >= 0 && idx.close >= 0 && idx.pe >= 0 && idx.marketCap >= 0
	return idx, ok
}

var legacyIndex = columnIndex{timestamp: 0, close: 5, pe: legacyRowWidth - 2, marketCap: legacyRowWidth - 1, width: legacyRowWidth}

// parseItems converts raw rows to bars, skipping the leading warm-up bars
// and rows without a positive close
func parseItems(columns []string, items [][]*float64) []domain.PriceBar {
	idx, ok := indexColumns(columns)
	if !ok {
		idx = legacyIndex
	}

	bars := make([]domain.PriceBar, 0, len(items))
	for i, row := range items {
		if i < skipLeading || len(row) != idx.width {
			continue
		}
		ts, closePrice := row[idx.timestamp], row[idx.close]
		if ts == nil || closePrice == nil || *closePrice <= 0 {
			continue
		}

		bar := domain.PriceBar{
			Timestamp: int64(*ts),
			Close:     *closePrice,
		}
		if pe := row[idx.pe]; pe != nil {
			v := *pe
			bar.PE = &v
		}
		if mc := row[idx.marketCap]; mc != nil {
			bar.MarketCapital = *mc
		}
		bars = append(bars, bar)
	}
	return bars
}
