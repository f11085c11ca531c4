package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/LeeviJ/triolasku-sub000/internal/logger"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	// Storage Configuration
	StoreDriver string
	DatabaseURL string

	// HTTP API Configuration
	HTTPAddr     string
	HTTPUser     string
	HTTPPassword string

	// Overdue sweeper schedule (cron spec, empty disables)
	OverdueSchedule string

	// Invoice defaults for companies without their own terms
	DefaultPaymentTermDays int
	DefaultLateInterest    decimal.Decimal

	// Google Sheets Configuration
	GoogleSheetURL       string
	GoogleSheetWorksheet string
	BankSheet            string

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

func Load() (*Config, error) {
	config := &Config{
		StoreDriver:          strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		HTTPUser:             getEnv("HTTP_USER", ""),
		HTTPPassword:         getEnv("HTTP_PASSWORD", ""),
		OverdueSchedule:      getEnv("OVERDUE_SCHEDULE", "@daily"),
		GoogleSheetURL:       getEnv("GOOGLE_SHEET_URL", ""),
		GoogleSheetWorksheet: getEnv("GOOGLE_SHEET_WORKSHEET", "Laskut"),
		BankSheet:            getEnv("BANK_SHEET", "Pankki"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:        getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:            getEnv("LOG_OUTPUT", "stderr"),
	}

	days, err := strconv.Atoi(getEnv("DEFAULT_PAYMENT_TERM_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: DEFAULT_PAYMENT_TERM_DAYS: %w", err)
	}
	config.DefaultPaymentTermDays = days

	interest, err := decimal.NewFromString(strings.Replace(getEnv("DEFAULT_LATE_INTEREST", "8"), ",", ".", 1))
	if err != nil {
		return nil, fmt.Errorf("config validation failed: DEFAULT_LATE_INTEREST: %w", err)
	}
	config.DefaultLateInterest = interest

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be memory or postgres, got %q", c.StoreDriver)
	}
	if c.DefaultPaymentTermDays < 0 {
		return fmt.Errorf("DEFAULT_PAYMENT_TERM_DAYS must not be negative")
	}
	if c.DefaultLateInterest.IsNegative() {
		return fmt.Errorf("DEFAULT_LATE_INTEREST must not be negative")
	}
	if (c.HTTPUser == "") != (c.HTTPPassword == "") {
		return fmt.Errorf("HTTP_USER and HTTP_PASSWORD must be set together")
	}
	if c.OverdueSchedule != "" {
		if _, err := cron.ParseStandard(c.OverdueSchedule); err != nil {
			return fmt.Errorf("OVERDUE_SCHEDULE is not a valid cron spec: %w", err)
		}
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
