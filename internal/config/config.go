package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Price store backends.
const (
	PriceStoreSQLite  = "sqlite"
	PriceStoreMongoDB = "mongodb"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Pricing   PricingConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	WhatsApp  WhatsAppConfig
	LogLevel  string
	Timezone  string
	TimeLoc   *time.Location
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port               string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// BackendConfig points at the external REST service that owns the shop records.
type BackendConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// PricingConfig selects where the sticky buying price is kept.
type PricingConfig struct {
	Store        string
	SQLitePath   string
	DefaultPrice decimal.Decimal
}

// ReportingConfig holds dashboard and scheduler settings.
type ReportingConfig struct {
	CronSchedule string
	CacheTTL     time.Duration
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables it.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration for the optional Google Sheets ledger mirror.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
}

// WhatsAppConfig contains credentials for sending the daily summary to the shop owner.
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	APIVersion    string
	OwnerID       string
}

// Enabled reports whether the ledger mirror is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// Enabled reports whether owner notifications are configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != "" && c.OwnerID != ""
}

// Enabled reports whether MongoDB is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	backendTimeout, err := time.ParseDuration(getenvWithDefault("BACKEND_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_TIMEOUT: %w", err)
	}
	retryCount, err := strconv.Atoi(getenvWithDefault("BACKEND_RETRY_COUNT", "2"))
	if err != nil {
		return nil, fmt.Errorf("BACKEND_RETRY_COUNT: %w", err)
	}
	defaultPrice, err := decimal.NewFromString(getenvWithDefault("DEFAULT_BUYING_PRICE", "50"))
	if err != nil {
		return nil, fmt.Errorf("DEFAULT_BUYING_PRICE: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getenvWithDefault("DASHBOARD_CACHE_TTL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("DASHBOARD_CACHE_TTL: %w", err)
	}
	rps, err := strconv.ParseFloat(getenvWithDefault("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_RPS: %w", err)
	}
	burst, err := strconv.Atoi(getenvWithDefault("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_BURST: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getenvWithDefault("APP_PORT", "8080"),
			CORSAllowedOrigins: splitList(getenvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
			RateLimitRPS:       rps,
			RateLimitBurst:     burst,
		},
		Backend: BackendConfig{
			BaseURL:    getenvWithDefault("BACKEND_BASE_URL", "http://127.0.0.1:8000"),
			Timeout:    backendTimeout,
			RetryCount: retryCount,
		},
		Pricing: PricingConfig{
			Store:        strings.ToLower(getenvWithDefault("PRICE_STORE", PriceStoreSQLite)),
			SQLitePath:   getenvWithDefault("PRICE_STORE_PATH", "suma.db"),
			DefaultPrice: defaultPrice,
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 20 * * *"),
			CacheTTL:     cacheTTL,
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "suma"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   os.Getenv("WHATSAPP_TOKEN"),
			PhoneNumberID: os.Getenv("WHATSAPP_PHONE_NUMBER_ID"),
			BaseURL:       getenvWithDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com"),
			APIVersion:    getenvWithDefault("WHATSAPP_API_VERSION", "v20.0"),
			OwnerID:       os.Getenv("WHATSAPP_OWNER_ID"),
		},
		LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		Timezone: getenvWithDefault("TIMEZONE", "Asia/Bangkok"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated and consistent.
// It also resolves the configured timezone.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}
	if c.Server.RateLimitRPS <= 0 || c.Server.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_BASE_URL must not be empty")
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.RetryCount < 0 {
		return errors.New("BACKEND_RETRY_COUNT must not be negative")
	}

	switch c.Pricing.Store {
	case PriceStoreSQLite:
		if c.Pricing.SQLitePath == "" {
			return errors.New("PRICE_STORE_PATH must be provided for the sqlite price store")
		}
	case PriceStoreMongoDB:
		if !c.MongoDB.Enabled() {
			return errors.New("MONGODB_URI must be provided for the mongodb price store")
		}
	default:
		return fmt.Errorf("PRICE_STORE must be %q or %q, got %q", PriceStoreSQLite, PriceStoreMongoDB, c.Pricing.Store)
	}
	if !c.Pricing.DefaultPrice.IsPositive() {
		return errors.New("DEFAULT_BUYING_PRICE must be positive")
	}

	if c.MongoDB.Enabled() && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must not be empty")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set together")
	}

	wa := c.WhatsApp
	if wa.AccessToken != "" || wa.PhoneNumberID != "" || wa.OwnerID != "" {
		switch {
		case wa.AccessToken == "":
			return errors.New("WHATSAPP_TOKEN must be provided")
		case wa.PhoneNumberID == "":
			return errors.New("WHATSAPP_PHONE_NUMBER_ID must be provided")
		case wa.OwnerID == "":
			return errors.New("WHATSAPP_OWNER_ID must be provided")
		case wa.BaseURL == "" || wa.APIVersion == "":
			return errors.New("WHATSAPP_BASE_URL and WHATSAPP_API_VERSION must not be empty")
		}
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}
	if c.Reporting.CacheTTL < 0 {
		return errors.New("DASHBOARD_CACHE_TTL must not be negative")
	}

	if c.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("TIMEZONE %s: %w", c.Timezone, err)
	}
	c.TimeLoc = loc

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
