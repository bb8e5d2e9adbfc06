package config

import (
	"fmt"
	"os"
	"time"

	"github.com/mcclellann/hoaLedger/internal/logger"
	"github.com/shopspring/decimal"
)

type Config struct {
	// Storage
	DBPath string

	// HTTP API
	HTTPAddr string

	// How often pending invoices are re-checked against their due dates
	OverdueSweepInterval time.Duration

	// Used when a budget does not carry its own common area percentage
	DefaultCommonAreaPercentage decimal.Decimal

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	interval, err := time.ParseDuration(getEnv("HOA_OVERDUE_SWEEP_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("HOA_OVERDUE_SWEEP_INTERVAL: %w", err)
	}
	commonPct, err := decimal.NewFromString(getEnv("HOA_DEFAULT_COMMON_AREA_PCT", "45"))
	if err != nil {
		return nil, fmt.Errorf("HOA_DEFAULT_COMMON_AREA_PCT: %w", err)
	}

	config := &Config{
		DBPath:                      getEnv("HOA_DB_PATH", "hoaledger.db"),
		HTTPAddr:                    getEnv("HOA_HTTP_ADDR", ":8080"),
		OverdueSweepInterval:        interval,
		DefaultCommonAreaPercentage: commonPct,
		LogLevel:                    getEnv("LOG_LEVEL", "info"),
		LogFormat:                   getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:               getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:                   getEnv("LOG_OUTPUT", "stdout"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("HOA_DB_PATH is required")
	}
	if c.OverdueSweepInterval <= 0 {
		return fmt.Errorf("HOA_OVERDUE_SWEEP_INTERVAL must be positive")
	}
	if c.DefaultCommonAreaPercentage.IsNegative() || c.DefaultCommonAreaPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("HOA_DEFAULT_COMMON_AREA_PCT must be between 0 and 100")
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
