package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath     string
	FinnhubAPIKey    string
	EdgarUserAgent   string
	LogLevel         string
	Port             int
	DevMode          bool
	CacheTTLMetrics  time.Duration
	CacheTTLCharts   time.Duration
	CacheTTLProfile  time.Duration
	CacheTTLCIK      time.Duration
	FinnhubRateLimit int      // calls per minute
	EdgarRateLimit   int      // calls per second
	Watchlist        []string // tickers refreshed by the background job
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8000),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/scorecard.db"),
		FinnhubAPIKey:    getEnv("FINNHUB_API_KEY", ""),
		EdgarUserAgent:   getEnv("EDGAR_USER_AGENT", "stock-scorecard admin@example.com"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CacheTTLMetrics:  getEnvAsDuration("CACHE_TTL_METRICS", 6*time.Hour),
		CacheTTLCharts:   getEnvAsDuration("CACHE_TTL_CHARTS", 15*time.Minute),
		CacheTTLProfile:  getEnvAsDuration("CACHE_TTL_PROFILE", 24*time.Hour),
		CacheTTLCIK:      getEnvAsDuration("CACHE_TTL_CIK", 7*24*time.Hour),
		FinnhubRateLimit: getEnvAsInt("FINNHUB_RATE_LIMIT", 60),
		EdgarRateLimit:   getEnvAsInt("EDGAR_RATE_LIMIT", 10),
		Watchlist:        getEnvAsList("WATCHLIST"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}

	// Note: Finnhub key optional; finnhub-backed enrichment degrades to
	// Yahoo-only data when absent
	if c.EdgarUserAgent == "" {
		return fmt.Errorf("EDGAR_USER_AGENT is required (SEC requires an identifying UA)")
	}

	return nil
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

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.ToUpper(strings.TrimSpace(part)); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
