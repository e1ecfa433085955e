package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env string

	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT secret for operator routes
	JWTSecret string

	// Webhooks
	WebhookSigningSecret string
	WebhookTolerance     time.Duration

	// Banking provider
	ProviderBaseURL     string
	ProviderAccessToken string
	ProviderBankCode    string
	ProviderTimeout     time.Duration

	// Locking; an empty RedisURL selects the in-process locker
	RedisURL   string
	LockExpiry time.Duration

	// Payment drafts are scheduled this many days before the invoice due date
	PaymentLeadDays int
}

// LockSafetyMargin is the minimum time a lock must outlive the slowest
// provider call, leaving room for the database write that records it.
const LockSafetyMargin = 10 * time.Second

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "ledgersync"),
		DBPassword: getEnv("DB_PASSWORD", "ledgersync"),
		DBName:     getEnv("DB_NAME", "ledgersync"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		WebhookSigningSecret: getEnv("WEBHOOK_SIGNING_SECRET", ""),
		WebhookTolerance:     getDuration("WEBHOOK_TOLERANCE", 5*time.Minute),

		ProviderBaseURL:     strings.TrimRight(getEnv("PROVIDER_BASE_URL", "https://b2b.revolut.com/api/1.0"), "/"),
		ProviderAccessToken: getEnv("PROVIDER_ACCESS_TOKEN", ""),
		ProviderBankCode:    strings.ToUpper(getEnv("PROVIDER_BANK_CODE", "REVOLUT")),
		ProviderTimeout:     getDuration("PROVIDER_TIMEOUT", 30*time.Second),

		RedisURL:   getEnv("REDIS_URL", ""),
		LockExpiry: getDuration("LOCK_EXPIRY", 60*time.Second),

		PaymentLeadDays: getInt("PAYMENT_LEAD_DAYS", 2),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	appConfig = config
	return config, nil
}

// Validate rejects settings under which a provider side effect could run
// after its lock expired.
func (c *Config) Validate() error {
	if c.LockExpiry < c.ProviderTimeout+LockSafetyMargin {
		return fmt.Errorf("LOCK_EXPIRY (%s) must be at least PROVIDER_TIMEOUT (%s) plus %s",
			c.LockExpiry, c.ProviderTimeout, LockSafetyMargin)
	}
	return nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// DSN returns the PostgreSQL connection string for gorm
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// MigrateURL returns the PostgreSQL URL golang-migrate expects
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %s\n", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Printf("Warning: invalid %s value '%s', falling back to %d\n", key, raw, defaultValue)
		return defaultValue
	}
	return n
}
