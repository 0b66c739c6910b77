// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Shanghai without relying on the host zoneinfo

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir     string // Base directory for the database and symbol list
	DBPath      string
	SymbolsFile string
	OutputDir   string // Where JSON/xlsx artifacts are written

	LogLevel  string
	LogPretty bool

	FetchDelay    time.Duration // Fixed pause between symbols
	FetchTimeout  time.Duration
	StrictFetch   bool // Abort the run on the first fetch failure
	XueqiuCookie  string
	XueqiuBaseURL string
	TenJQKAURL    string
	EtnetURL      string

	HistoryLimit    int // Price rows read per symbol for valuation, 0 = all
	Timezone        string
	WriteWorkbook   bool
	MetricsTextfile string // Prometheus textfile output, empty = disabled

	HTTPPort int
	Schedule string // cron spec with seconds field

	S3 S3Config
}

// S3Config holds artifact publishing settings
type S3Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // S3-compatible endpoint, empty for AWS
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether publishing is configured
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from .env and environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("VALUATOR_DATA_DIR", "data")

	cfg := &Config{
		DataDir:     dataDir,
		DBPath:      getEnv("VALUATOR_DB_PATH", filepath.Join(dataDir, "db", "stock_valuation.db")),
		SymbolsFile: getEnv("VALUATOR_SYMBOLS_FILE", filepath.Join(dataDir, "stocks_data.csv")),
		OutputDir:   getEnv("VALUATOR_OUTPUT_DIR", filepath.Join("docs", "data")),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		FetchDelay:    getEnvAsDuration("FETCH_DELAY", time.Second),
		FetchTimeout:  getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
		StrictFetch:   getEnvAsBool("STRICT_FETCH", true),
		XueqiuCookie:  getEnv("XUEQIU_COOKIE", ""),
		XueqiuBaseURL: getEnv("XUEQIU_BASE_URL", ""),
		TenJQKAURL:    getEnv("TENJQKA_BASE_URL", ""),
		EtnetURL:      getEnv("ETNET_BASE_URL", ""),

		HistoryLimit:    getEnvAsInt("HISTORY_LIMIT", 0),
		Timezone:        getEnv("VALUATOR_TIMEZONE", "Asia/Shanghai"),
		WriteWorkbook:   getEnvAsBool("WRITE_WORKBOOK", false),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),

		HTTPPort: getEnvAsInt("HTTP_PORT", 8080),
		Schedule: getEnv("SCHEDULE", "0 30 16 * * MON-FRI"),

		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Prefix:          getEnv("S3_PREFIX", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.FetchDelay < 0 {
		return fmt.Errorf("fetch delay must not be negative, got %s", c.FetchDelay)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive, got %s", c.FetchTimeout)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history limit must not be negative, got %d", c.HistoryLimit)
	}
	if c.HistoryLimit > 0 && c.HistoryLimit < 1000 {
		return fmt.Errorf("history limit %d is below the 1000 rows valuation needs", c.HistoryLimit)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port %d", c.HTTPPort)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the market timezone used for dates
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("1500ms") or plain seconds ("2")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
