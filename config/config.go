// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config holds every runtime setting of the billing backend
type Config struct {
	Port string

	DB DatabaseConfig

	Currency           string
	GatewayTimeout     time.Duration
	RecentHistoryLimit int

	PayPal PayPalConfig

	NATSURL     string
	NATSSubject string

	NewRelicAppName    string
	NewRelicLicenseKey string
}

// DatabaseConfig selects and configures the durable store
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

// PayPalConfig holds the default gateway account
type PayPalConfig struct {
	ClientID     string
	ClientSecret string
	Mode         string
	WebhookID    string
	ReturnURL    string
	CancelURL    string
	AccountsFile string
}

// Enabled reports whether default gateway credentials are configured
func (p PayPalConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// DSN builds the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads .env (if present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("[Config] .env file not found, using environment variables")
	}

	timeout, err := cast.ToDurationE(getEnvOrDefault("GATEWAY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("invalid GATEWAY_TIMEOUT: %w", err)
	}
	recent, err := cast.ToIntE(getEnvOrDefault("RECENT_HISTORY_LIMIT", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid RECENT_HISTORY_LIMIT: %w", err)
	}

	cfg := &Config{
		Port: getEnvOrDefault("PORT", "8080"),
		DB: DatabaseConfig{
			Driver:     strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
			Host:       getEnvOrDefault("DB_HOST", "localhost"),
			Port:       getEnvOrDefault("DB_PORT", "5432"),
			User:       getEnvOrDefault("DB_USER", "postgres"),
			Password:   getEnvOrDefault("DB_PASSWORD", "postgres"),
			Name:       getEnvOrDefault("DB_NAME", "rentlot"),
			SSLMode:    getEnvOrDefault("DB_SSLMODE", "disable"),
			SQLitePath: getEnvOrDefault("SQLITE_PATH", "rentlot.db"),
		},
		Currency:           strings.ToUpper(getEnvOrDefault("BILLING_CURRENCY", "USD")),
		GatewayTimeout:     timeout,
		RecentHistoryLimit: recent,
		PayPal: PayPalConfig{
			ClientID:     os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret: os.Getenv("PAYPAL_CLIENT_SECRET"),
			Mode:         strings.ToLower(getEnvOrDefault("PAYPAL_MODE", "sandbox")),
			WebhookID:    os.Getenv("PAYPAL_WEBHOOK_ID"),
			ReturnURL:    getEnvOrDefault("PAYPAL_RETURN_URL", "http://localhost:8080/payments/return"),
			CancelURL:    getEnvOrDefault("PAYPAL_CANCEL_URL", "http://localhost:8080/payments/cancel"),
			AccountsFile: os.Getenv("PAYPAL_ACCOUNTS_FILE"),
		},
		NATSURL:            os.Getenv("NATS_URL"),
		NATSSubject:        getEnvOrDefault("NATS_SUBJECT", "billing.payment_link.created"),
		NewRelicAppName:    getEnvOrDefault("NEW_RELIC_APP_NAME", "RentLot Billing API"),
		NewRelicLicenseKey: os.Getenv("NEW_RELIC_LICENSE_KEY"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with
func (c *Config) Validate() error {
	if c.DB.Driver != "postgres" && c.DB.Driver != "sqlite" && c.DB.Driver != "memory" {
		return fmt.Errorf("DB_DRIVER must be postgres, sqlite or memory, got %q", c.DB.Driver)
	}
	if c.GatewayTimeout <= 0 {
		return fmt.Errorf("GATEWAY_TIMEOUT must be positive")
	}
	if len(c.Currency) != 3 {
		return fmt.Errorf("BILLING_CURRENCY must be an ISO 4217 code, got %q", c.Currency)
	}
	if c.PayPal.Mode != "sandbox" && c.PayPal.Mode != "live" {
		return fmt.Errorf("PAYPAL_MODE must be sandbox or live, got %q", c.PayPal.Mode)
	}
	return nil
}

// Helper function to get environment variable with default value
func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
