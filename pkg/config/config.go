package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// DateLayout is the compact trading-date format used by config and CLI flags (YYYYMMDD).
const DateLayout = "20060102"

// Config holds all configuration for the application
// ⭐ SSOT: 环境变量只在这里读取
type Config struct {
	// Server
	Port string `validate:"required,numeric"`
	Env  string `validate:"oneof=development staging production test"`

	Selection SelectionConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Eastmoney EastmoneyConfig
	THS       THSConfig
	Scheduler SchedulerConfig

	// Optional YAML file overriding strategy thresholds / enabled list
	StrategyConfigPath string

	// Logging
	LogLevel  string
	LogFormat string `validate:"oneof=json console pretty"`
}

// SelectionConfig holds screening parameters
type SelectionConfig struct {
	StartDate       string  `validate:"len=8,numeric"`
	EndDate         string  `validate:"len=8,numeric"`
	MinMarketValue  float64 `validate:"gte=0"`
	ExcludeST       bool
	BoardPrefixes   []string `validate:"dive,required"`
	UniverseLimit   int      `validate:"gte=0"`
	MinBars         int      `validate:"gte=1"`
	Concurrency     int      `validate:"gte=1,lte=64"`
	FetchTimeout    time.Duration
	HotSectorTopK   int    `validate:"gte=0"`
	HotSectorSource string `validate:"oneof=industry concept none"`
}

// Start parses StartDate
func (s SelectionConfig) Start() time.Time {
	t, _ := time.ParseInLocation(DateLayout, s.StartDate, time.Local)
	return t
}

// End parses EndDate
func (s SelectionConfig) End() time.Time {
	t, _ := time.ParseInLocation(DateLayout, s.EndDate, time.Local)
	return t
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int `validate:"gte=0"`
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int `validate:"gte=1"`
	MinConns        int `validate:"gte=0"`
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// EastmoneyConfig holds eastmoney quote API configuration
type EastmoneyConfig struct {
	ListURL    string  `validate:"url"`
	KlineURL   string  `validate:"url"`
	QuoteURL   string  `validate:"url"`
	RatePerSec float64 `validate:"gt=0"`
}

// THSConfig holds 10jqka (同花顺) data center configuration
type THSConfig struct {
	BaseURL    string  `validate:"url"`
	RatePerSec float64 `validate:"gt=0"`
}

// SchedulerConfig holds cron settings for the selection job
type SchedulerConfig struct {
	SelectionSpec string `validate:"required"`
	CollectSpec   string
	MaxRetries    int `validate:"gte=0"`
	RetryDelay    time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 只有这个函数调用 os.Getenv()
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Selection: SelectionConfig{
			StartDate:       getEnv("SELECT_START_DATE", "20250101"),
			EndDate:         getEnv("SELECT_END_DATE", time.Now().Format(DateLayout)),
			MinMarketValue:  getEnvAsFloat("SELECT_MIN_MARKET_VALUE", 3e9),
			ExcludeST:       getEnvAsBool("SELECT_EXCLUDE_ST", true),
			BoardPrefixes:   getEnvAsList("SELECT_BOARD_PREFIXES", []string{"00", "60"}),
			UniverseLimit:   getEnvAsInt("SELECT_UNIVERSE_LIMIT", 50),
			MinBars:         getEnvAsInt("SELECT_MIN_BARS", 20),
			Concurrency:     getEnvAsInt("SELECT_CONCURRENCY", 8),
			FetchTimeout:    getEnvAsDuration("SELECT_FETCH_TIMEOUT", "15s"),
			HotSectorTopK:   getEnvAsInt("HOT_SECTOR_TOP_K", 3),
			HotSectorSource: getEnv("HOT_SECTOR_SOURCE", "industry"),
		},

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Eastmoney: EastmoneyConfig{
			ListURL:    getEnv("EASTMONEY_LIST_URL", "https://82.push2.eastmoney.com/api/qt/clist/get"),
			KlineURL:   getEnv("EASTMONEY_KLINE_URL", "https://push2his.eastmoney.com/api/qt/stock/kline/get"),
			QuoteURL:   getEnv("EASTMONEY_QUOTE_URL", "https://push2.eastmoney.com/api/qt/stock/get"),
			RatePerSec: getEnvAsFloat("EASTMONEY_RATE", 5),
		},

		THS: THSConfig{
			BaseURL:    getEnv("THS_BASE_URL", "https://data.10jqka.com.cn"),
			RatePerSec: getEnvAsFloat("THS_RATE", 1),
		},

		Scheduler: SchedulerConfig{
			SelectionSpec: getEnv("SCHEDULE_SELECTION", "0 30 15 * * 1-5"),
			CollectSpec:   getEnv("SCHEDULE_COLLECT", "0 0 16 * * 1-5"),
			MaxRetries:    getEnvAsInt("SCHEDULE_MAX_RETRIES", 2),
			RetryDelay:    getEnvAsDuration("SCHEDULE_RETRY_DELAY", "1m"),
		},

		StrategyConfigPath: getEnv("STRATEGY_CONFIG", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

var validate = validator.New()

// validate checks struct tags and cross-field rules
func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	start, err := time.Parse(DateLayout, c.Selection.StartDate)
	if err != nil {
		return fmt.Errorf("SELECT_START_DATE: %w", err)
	}
	end, err := time.Parse(DateLayout, c.Selection.EndDate)
	if err != nil {
		return fmt.Errorf("SELECT_END_DATE: %w", err)
	}
	if end.Before(start) {
		return errors.New("SELECT_END_DATE must not be before SELECT_START_DATE")
	}

	if c.Env == "production" && !c.Database.Enabled() {
		return errors.New("DATABASE_URL is required in production")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

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

// getEnvAsList splits a comma separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
