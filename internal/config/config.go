package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment
// variables.
type Config struct {
	RatesURL            string
	RatesLowerBound     string
	ChartURL            string
	HTTPRetryMax        int
	HTTPRetryBaseDelay  time.Duration
	DatabaseURL         string
	SheetsSpreadsheetID string
	SheetsCredentials   string
	PrefetchWorkers     int
}

// Load reads configuration from environment variables with sensible
// defaults. DatabaseURL and the Sheets settings are optional; leaving
// them empty disables the bar cache, run persistence and the Sheets
// export respectively.
func Load() Config {
	return Config{
		RatesURL:            envOrDefault("RATES_URL", "https://raw.githubusercontent.com/sahilgupta/sbi-fx-ratekeeper/main/csv_files/SBI_REFERENCE_RATES_USD.csv"),
		RatesLowerBound:     envOrDefault("RATES_LOWER_BOUND", "2020-01-04"),
		ChartURL:            envOrDefault("CHART_URL", "https://query2.finance.yahoo.com"),
		HTTPRetryMax:        envOrDefaultInt("HTTP_RETRY_MAX", 5),
		HTTPRetryBaseDelay:  envOrDefaultDuration("HTTP_RETRY_BASE_DELAY", 2*time.Second),
		DatabaseURL:         envOrDefault("DATABASE_URL", ""),
		SheetsSpreadsheetID: envOrDefault("SHEETS_SPREADSHEET_ID", ""),
		SheetsCredentials:   envOrDefault("SHEETS_CREDENTIALS_JSON", ""),
		PrefetchWorkers:     envOrDefaultInt("PREFETCH_WORKERS", 3),
	}
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
