// Package config provides application configuration loading from environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	TelegramBotToken string
	DatabaseURL      string
	LogLevel         string

	// External services.
	CreditAPIURL        string
	ChatAPIURL          string
	IdentityAPIURL      string
	IdentityAPIKey      string
	CloudinaryCloudName string
	CloudinaryUploadURL string
	GeminiAPIKey        string

	HTTPTimeout       time.Duration
	TelemetryExporter string

	// SplashDelay is how long the splash screen shows before the app
	// is considered ready.
	SplashDelay time.Duration

	DailyReminderEnabled bool
	ReminderHour         int
	ReminderTimezone     string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		CreditAPIURL:        os.Getenv("CREDIT_API_URL"),
		ChatAPIURL:          os.Getenv("CHAT_API_URL"),
		IdentityAPIURL:      os.Getenv("IDENTITY_API_URL"),
		IdentityAPIKey:      os.Getenv("IDENTITY_API_KEY"),
		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryUploadURL: os.Getenv("CLOUDINARY_UPLOAD_URL"),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		TelemetryExporter:   os.Getenv("TELEMETRY_EXPORTER"),
	}

	cfg.HTTPTimeout = 30 * time.Second
	if timeoutStr := os.Getenv("HTTP_TIMEOUT_SECONDS"); timeoutStr != "" {
		if secs, err := strconv.Atoi(timeoutStr); err == nil && secs > 0 {
			cfg.HTTPTimeout = time.Duration(secs) * time.Second
		}
	}

	cfg.SplashDelay = 3 * time.Second
	if delayStr := os.Getenv("SPLASH_DELAY_MS"); delayStr != "" {
		if ms, err := strconv.Atoi(delayStr); err == nil && ms >= 0 {
			cfg.SplashDelay = time.Duration(ms) * time.Millisecond
		}
	}

	cfg.DailyReminderEnabled = os.Getenv("DAILY_REMINDER_ENABLED") == "true"
	cfg.ReminderHour = 20
	if hourStr := os.Getenv("REMINDER_HOUR"); hourStr != "" {
		if h, err := strconv.Atoi(hourStr); err == nil && h >= 0 && h <= 23 {
			cfg.ReminderHour = h
		}
	}
	cfg.ReminderTimezone = "Asia/Kolkata"
	if tz := os.Getenv("REMINDER_TIMEZONE"); tz != "" {
		if _, err := time.LoadLocation(tz); err == nil {
			cfg.ReminderTimezone = tz
		}
	}

	// Validate required configuration.
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks that all required configuration is present.
func (c *Config) validate() error {
	var errs []string

	if c.TelegramBotToken == "" {
		errs = append(errs, "TELEGRAM_BOT_TOKEN is required")
	}

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}

	if c.IdentityAPIKey == "" {
		errs = append(errs, "IDENTITY_API_KEY is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
