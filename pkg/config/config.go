package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Optional stores
	Database DatabaseConfig
	Redis    RedisConfig

	// Pipeline
	Ranking  RankingConfig
	Resolver ResolverConfig
	Schedule ScheduleConfig

	// External sources
	HTTP         HTTPConfig
	StatementDog StatementDogConfig
	Quotes       QuotesConfig
	Browser      BrowserConfig
	Sector       SectorConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
// An empty URL disables report persistence.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool

	// PriceCacheTTL bounds how long a day's raw quote feeds are reused
	PriceCacheTTL time.Duration
}

// RankingConfig selects the ranking source and list sizes
type RankingConfig struct {
	Source string // api, browser
	TopN   int
}

// ResolverConfig controls group stock resolution
type ResolverConfig struct {
	Limit   int
	Lenient bool // keep non-numeric ticker codes verbatim
	Workers int
}

// ScheduleConfig holds the cron expression and periods for scheduled runs
type ScheduleConfig struct {
	Cron    string
	Periods []string
}

// HTTPConfig holds transport settings shared by every HTTP source
type HTTPConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 = unlimited
	UserAgent string
}

// StatementDogConfig holds the API ranking source configuration
type StatementDogConfig struct {
	BaseURL string
	Country string
}

// QuotesConfig holds the daily quote feed endpoints
type QuotesConfig struct {
	ListedURL string // TWSE STOCK_DAY_ALL
	OTCURL    string // TPEx mainboard quotes
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Headless    bool
	NoSandbox   bool
	WaitTimeout time.Duration
	ExecPath    string
}

// SectorConfig holds the browser-rendered ranking site layout
type SectorConfig struct {
	BaseURL       string
	RankingPath   string // formatted with (direction, period index)
	TableID       string
	ResultClass   string
	ResultTableID string
	MaxRows       int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 5),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			Enabled:       getEnvAsBool("REDIS_ENABLED", false),
			PriceCacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", "1h"),
		},

		Ranking: RankingConfig{
			Source: getEnv("RANKING_SOURCE", "api"),
			TopN:   getEnvAsInt("RANKING_TOP_N", 5),
		},

		Resolver: ResolverConfig{
			Limit:   getEnvAsInt("RESOLVER_LIMIT", 3),
			Lenient: getEnvAsBool("RESOLVER_LENIENT", false),
			Workers: getEnvAsInt("RESOLVER_WORKERS", 1),
		},

		Schedule: ScheduleConfig{
			Cron:    getEnv("SCHEDULE_CRON", "0 30 15 * * 1-5"),
			Periods: getEnvAsList("SCHEDULE_PERIODS", "1day,1week"),
		},

		HTTP: HTTPConfig{
			Timeout:   getEnvAsDuration("HTTP_TIMEOUT", "30s"),
			RateLimit: getEnvAsFloat("HTTP_RATE_LIMIT", 0),
			UserAgent: getEnv("HTTP_USER_AGENT", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"),
		},

		StatementDog: StatementDogConfig{
			BaseURL: getEnv("STATEMENTDOG_BASE_URL", "https://statementdog.com"),
			Country: getEnv("STATEMENTDOG_COUNTRY", "tw"),
		},

		Quotes: QuotesConfig{
			ListedURL: getEnv("TWSE_QUOTES_URL", "https://www.twse.com.tw/exchangeReport/STOCK_DAY_ALL?response=json"),
			OTCURL:    getEnv("TPEX_QUOTES_URL", "https://www.tpex.org.tw/openapi/v1/tpex_mainboard_quotes"),
		},

		Browser: BrowserConfig{
			Headless:    getEnvAsBool("BROWSER_HEADLESS", true),
			NoSandbox:   getEnvAsBool("BROWSER_NO_SANDBOX", true),
			WaitTimeout: getEnvAsDuration("BROWSER_WAIT_TIMEOUT", "10s"),
			ExecPath:    getEnv("BROWSER_EXEC_PATH", ""),
		},

		Sector: SectorConfig{
			BaseURL:       getEnv("SECTOR_BASE_URL", ""),
			RankingPath:   getEnv("SECTOR_RANKING_PATH", "/sector/ranking/%s?period=%d"),
			TableID:       getEnv("SECTOR_TABLE_ID", "sector-ranking"),
			ResultClass:   getEnv("SECTOR_RESULT_CLASS", "result-table"),
			ResultTableID: getEnv("SECTOR_RESULT_TABLE_ID", "sector-stocks"),
			MaxRows:       getEnvAsInt("SECTOR_MAX_ROWS", 10),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// maxResolverLimit is the most stocks a group may carry in a report
const maxResolverLimit = 3

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Ranking.Source {
	case "api":
	case "browser":
		if c.Sector.BaseURL == "" {
			return fmt.Errorf("SECTOR_BASE_URL is required when RANKING_SOURCE=browser")
		}
	default:
		return fmt.Errorf("RANKING_SOURCE must be one of: api, browser")
	}

	if c.Ranking.TopN <= 0 {
		return fmt.Errorf("RANKING_TOP_N must be positive, got %d", c.Ranking.TopN)
	}
	if c.Resolver.Limit < 1 || c.Resolver.Limit > maxResolverLimit {
		return fmt.Errorf("RESOLVER_LIMIT must be between 1 and %d, got %d", maxResolverLimit, c.Resolver.Limit)
	}
	if c.Resolver.Workers <= 0 {
		return fmt.Errorf("RESOLVER_WORKERS must be positive, got %d", c.Resolver.Workers)
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated value, dropping empty items
func getEnvAsList(key string, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)

	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
