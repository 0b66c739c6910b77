package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VALUATOR_DATA_DIR", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "db", "stock_valuation.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join("data", "stocks_data.csv"), cfg.SymbolsFile)
	assert.Equal(t, filepath.Join("docs", "data"), cfg.OutputDir)
	assert.Equal(t, time.Second, cfg.FetchDelay)
	assert.True(t, cfg.StrictFetch)
	assert.Equal(t, 0, cfg.HistoryLimit)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.False(t, cfg.S3.Enabled())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("VALUATOR_DATA_DIR", "/srv/valuator")
	t.Setenv("FETCH_DELAY", "2")
	t.Setenv("FETCH_TIMEOUT", "45s")
	t.Setenv("STRICT_FETCH", "false")
	t.Setenv("HISTORY_LIMIT", "2500")
	t.Setenv("S3_BUCKET", "valuations")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/valuator/db/stock_valuation.db", cfg.DBPath)
	assert.Equal(t, 2*time.Second, cfg.FetchDelay)
	assert.Equal(t, 45*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.StrictFetch)
	assert.Equal(t, 2500, cfg.HistoryLimit)
	assert.True(t, cfg.S3.Enabled())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			DBPath:       "x.db",
			LogLevel:     "info",
			FetchDelay:   time.Second,
			FetchTimeout: time.Second,
			HTTPPort:     8080,
			Timezone:     "Asia/Shanghai",
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"negative delay", func(c *Config) { c.FetchDelay = -time.Second }},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }},
		{"negative limit", func(c *Config) { c.HistoryLimit = -1 }},
		{"limit below minimum", func(c *Config) { c.HistoryLimit = 500 }},
		{"port", func(c *Config) { c.HTTPPort = 70000 }},
		{"db path", func(c *Config) { c.DBPath = "" }},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
