package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds engine configuration
type Config struct {
	DatabasePath string
	StockXAPIURL string
	StockXAPIKey string
	LogLevel     string

	// Batch execution
	Workers int // bounded worker pool size for batch entry points

	// Market snapshot access discipline
	MarketMinInterval  time.Duration // minimum gap between marketplace requests
	BackoffBase        time.Duration // first retry delay after a rate-limit signal
	BackoffMaxAttempts int

	// Repricing
	MinPriceChange float64 // EUR; smaller recommendations are dropped

	// Dead stock
	AgeThresholdDays int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:       getEnv("DATABASE_PATH", "./data/soleflip.db"),
		StockXAPIURL:       getEnv("STOCKX_API_URL", "https://api.stockx.com/v2"),
		StockXAPIKey:       getEnv("STOCKX_API_KEY", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Workers:            getEnvAsInt("ENGINE_WORKERS", 6),
		MarketMinInterval:  getEnvAsDuration("MARKET_MIN_INTERVAL", 500*time.Millisecond),
		BackoffBase:        getEnvAsDuration("MARKET_BACKOFF_BASE", 2*time.Second),
		BackoffMaxAttempts: getEnvAsInt("MARKET_BACKOFF_ATTEMPTS", 3),
		MinPriceChange:     getEnvAsFloat("REPRICE_MIN_CHANGE", 1.00),
		AgeThresholdDays:   getEnvAsInt("DEADSTOCK_AGE_THRESHOLD_DAYS", 180),
	}

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
	if c.Workers < 1 {
		return fmt.Errorf("ENGINE_WORKERS must be >= 1")
	}
	if c.MarketMinInterval < 0 {
		return fmt.Errorf("MARKET_MIN_INTERVAL must not be negative")
	}
	if c.AgeThresholdDays < 1 {
		return fmt.Errorf("DEADSTOCK_AGE_THRESHOLD_DAYS must be >= 1")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
