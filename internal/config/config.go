package config

import (
	"fmt"
	"os"
	"strconv"
)

// Backend selects the storage realization behind the submission pipeline.
const (
	BackendPostgres = "postgres"
	BackendLedger   = "ledger"
)

// Config holds the whole application configuration, populated from
// environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Ledger   LedgerConfig
	Verifier VerifierConfig
	JWT      JWTConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	Backend     string // postgres, ledger
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// LedgerConfig configures the BadgerDB-backed ledger store.
type LedgerConfig struct {
	Dir      string
	InMemory bool
}

// VerifierConfig configures the external zk proof verifier.
type VerifierConfig struct {
	BaseURL     string
	BlueprintID string
	TimeoutSec  int
	UseMock     bool
}

type JWTConfig struct {
	Secret           string
	TokenExpiryHours int
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "ZKReview API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Backend:     getEnv("APP_BACKEND", BackendPostgres),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "zkreview"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Ledger: LedgerConfig{
			Dir:      getEnv("LEDGER_DIR", "./data/ledger"),
			InMemory: getEnvBool("LEDGER_IN_MEMORY", false),
		},
		Verifier: VerifierConfig{
			BaseURL:     getEnv("VERIFIER_BASE_URL", "http://localhost:3001"),
			BlueprintID: getEnv("VERIFIER_BLUEPRINT_ID", "purchase-confirmation/v1"),
			TimeoutSec:  getEnvInt("VERIFIER_TIMEOUT_SEC", 10),
			UseMock:     getEnvBool("VERIFIER_USE_MOCK", false),
		},
		JWT: JWTConfig{
			Secret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			TokenExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks critical config values.
func (c *Config) Validate() error {
	if c.App.Backend != BackendPostgres && c.App.Backend != BackendLedger {
		return fmt.Errorf("APP_BACKEND must be %q or %q, got %q", BackendPostgres, BackendLedger, c.App.Backend)
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.App.Backend == BackendPostgres && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
		if c.Verifier.UseMock {
			return fmt.Errorf("VERIFIER_USE_MOCK must not be enabled in production")
		}
		if c.App.Backend == BackendLedger && c.Ledger.InMemory {
			return fmt.Errorf("LEDGER_IN_MEMORY must not be enabled in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
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
