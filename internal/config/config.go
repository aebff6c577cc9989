package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Data backends.
const (
	BackendXLSX   = "xlsx"
	BackendSheets = "sheets"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

var validBackends = []string{BackendXLSX, BackendSheets, BackendSQLite, BackendMemory}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Transaction source
	DataBackend     string
	OperationsFile  string
	OperationsSheet string
	SQLiteDBPath    string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Reports
	UserSettingsFile string
	CashbackRate     decimal.Decimal
	TopKCategories   int
	TopNTransactions int
	ReportAllowList  []string
	RollupOmitEmpty  bool
	StrictPeriod     bool
	Timezone         string

	// Market data
	RatesURL       string
	StockAPIURL    string
	StockAPIKey    string
	MarketTimeout  time.Duration
	MarketCacheTTL time.Duration

	// Publishing
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string
	GCSBucket      string
	GCSPrefix      string

	// Worker and CLI
	ReportSchedule   string
	ReportRunOnStart bool
	ReportOutput     string
}

func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8081"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend:     strings.ToLower(getEnv("DATA_BACKEND", BackendXLSX)),
		OperationsFile:  getEnv("OPERATIONS_FILE", "./data/operations.xlsx"),
		OperationsSheet: getEnv("OPERATIONS_SHEET", ""),
		SQLiteDBPath:    getEnv("SQLITE_DB_PATH", "./data/spendview.db"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Operations"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),

		UserSettingsFile: getEnv("USER_SETTINGS_FILE", "./user_settings.json"),
		CashbackRate:     getEnvDecimal("CASHBACK_RATE", decimal.New(1, -2)),
		TopKCategories:   getEnvInt("TOP_K_CATEGORIES", 7),
		TopNTransactions: getEnvInt("TOP_N_TRANSACTIONS", 5),
		ReportAllowList:  getEnvList("REPORT_ALLOW_LIST", []string{"Наличные", "Переводы"}),
		RollupOmitEmpty:  getEnvBool("ROLLUP_OMIT_EMPTY", false),
		StrictPeriod:     getEnvBool("STRICT_PERIOD", false),
		Timezone:         getEnv("TIMEZONE", "Local"),

		RatesURL:       getEnv("RATES_URL", "https://www.cbr.ru/scripts/XML_daily.asp"),
		StockAPIURL:    getEnv("STOCK_API_URL", ""),
		StockAPIKey:    getEnv("STOCK_API_KEY", getEnv("API_KEY", "")),
		MarketTimeout:  getEnvDuration("MARKET_TIMEOUT", 10*time.Second),
		MarketCacheTTL: getEnvDuration("MARKET_CACHE_TTL", 15*time.Minute),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "spendview"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "spendview.reports"),
		GCSBucket:      getEnv("GCS_BUCKET", ""),
		GCSPrefix:      getEnv("GCS_PREFIX", "reports"),

		ReportSchedule:   getEnv("REPORT_SCHEDULE", "0 8 * * *"),
		ReportRunOnStart: getEnvBool("REPORT_RUN_ON_START", false),
		ReportOutput:     getEnv("REPORT_OUTPUT", ""),
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	switch strings.TrimSpace(c.Timezone) {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendXLSX:
		if c.OperationsFile == "" {
			errors = append(errors, "operations file cannot be empty when using xlsx backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.CashbackRate.IsNegative() || c.CashbackRate.GreaterThan(decimal.NewFromInt(1)) {
		errors = append(errors, fmt.Sprintf("invalid cashback rate %s: must be between 0 and 1", c.CashbackRate))
	}
	if c.TopKCategories < 1 {
		errors = append(errors, fmt.Sprintf("invalid top categories %d: must be at least 1", c.TopKCategories))
	}
	if c.TopNTransactions < 1 {
		errors = append(errors, fmt.Sprintf("invalid top transactions %d: must be at least 1", c.TopNTransactions))
	}
	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	if c.MarketTimeout < 100*time.Millisecond || c.MarketTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid market timeout %v: must be between 100ms and 5m", c.MarketTimeout))
	}
	if c.MarketCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid market cache TTL %v: must not be negative", c.MarketCacheTTL))
	}
	if c.StockAPIURL != "" {
		if u, err := url.Parse(c.StockAPIURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errors = append(errors, fmt.Sprintf("invalid stock API URL '%s': must be http or https", c.StockAPIURL))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRoutingKey == "" {
			errors = append(errors, "AMQP routing key cannot be empty when AMQP URL is provided")
		}
	}

	if c.ReportSchedule != "" {
		if _, err := cron.ParseStandard(c.ReportSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid report schedule '%s': %v", c.ReportSchedule, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
