package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Database configuration
	DatabaseURL string

	// Redis configuration (classification cache; empty disables caching)
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// NATS configuration
	NATSURL string

	// Solana configuration
	SolanaRPCURL string
	Commitment   string

	// Fetch configuration
	FetchMode        string
	FetchConcurrency int
	BatchSize        int
	TargetRPS        int
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	// Spam filter configuration
	SpamMinLamports      int64
	SpamMinTokenValueUSD float64
	SpamMinConfidence    float64
	SpamAllowFailed      bool
}

// Fetch modes. Concurrent issues one getTransaction per HTTP call under a
// concurrency bound; batch groups them into JSON-RPC batch envelopes paced
// by BatchSize and TargetRPS.
const (
	FetchModeConcurrent = "concurrent"
	FetchModeBatch      = "batch"
)

// Load reads configuration from environment variables and validates all required fields.
// Returns an error if any required configuration is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	// Server configuration
	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	// Database configuration
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DATABASE_URL is required"))
	}

	// Redis configuration
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cacheTTL, err := parseDuration("CACHE_TTL", "168h")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.CacheTTL = cacheTTL
	}

	// NATS configuration
	cfg.NATSURL = getEnvOrDefault("NATS_URL", "nats://localhost:4222")

	// Solana configuration
	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}
	cfg.Commitment = getEnvOrDefault("SOLANA_COMMITMENT", "confirmed")

	// Fetch configuration
	cfg.FetchMode = getEnvOrDefault("FETCH_MODE", FetchModeConcurrent)

	concurrency, err := parseInt("FETCH_CONCURRENCY", 10)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.FetchConcurrency = concurrency
	}

	batchSize, err := parseInt("BATCH_SIZE", 25)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.BatchSize = batchSize
	}

	targetRPS, err := parseInt("TARGET_RPS", 10)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.TargetRPS = targetRPS
	}

	retryAttempts, err := parseInt("RETRY_MAX_ATTEMPTS", 5)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RetryMaxAttempts = retryAttempts
	}

	retryBase, err := parseDuration("RETRY_BASE_DELAY", "500ms")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RetryBaseDelay = retryBase
	}

	retryMax, err := parseDuration("RETRY_MAX_DELAY", "8s")
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.RetryMaxDelay = retryMax
	}

	// Spam filter configuration
	minLamports, err := parseInt("SPAM_MIN_LAMPORTS", 10_000)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SpamMinLamports = int64(minLamports)
	}

	minTokenUSD, err := parseFloat("SPAM_MIN_TOKEN_VALUE_USD", 0.01)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SpamMinTokenValueUSD = minTokenUSD
	}

	minConfidence, err := parseFloat("SPAM_MIN_CONFIDENCE", 0.0)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.SpamMinConfidence = minConfidence
	}

	cfg.SpamAllowFailed = os.Getenv("SPAM_ALLOW_FAILED") == "true"

	// Cross-field validation
	if cfg.RetryBaseDelay > cfg.RetryMaxDelay {
		errs = append(errs, fmt.Errorf("RETRY_BASE_DELAY (%v) cannot be greater than RETRY_MAX_DELAY (%v)",
			cfg.RetryBaseDelay, cfg.RetryMaxDelay))
	}

	// Return all validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
// Useful for server initialization where misconfiguration should halt startup.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid.
// This is useful for testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, fmt.Errorf("DatabaseURL is required"))
	}

	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}

	if c.FetchMode != FetchModeConcurrent && c.FetchMode != FetchModeBatch {
		errs = append(errs, fmt.Errorf("FetchMode must be %q or %q", FetchModeConcurrent, FetchModeBatch))
	}

	if c.FetchConcurrency < 1 {
		errs = append(errs, fmt.Errorf("FetchConcurrency must be at least 1"))
	}

	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("BatchSize must be at least 1"))
	}

	if c.TargetRPS < 1 {
		errs = append(errs, fmt.Errorf("TargetRPS must be at least 1"))
	}

	if c.RetryMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("RetryMaxAttempts must be at least 1"))
	}

	if c.RetryBaseDelay > c.RetryMaxDelay {
		errs = append(errs, fmt.Errorf("RetryBaseDelay cannot be greater than RetryMaxDelay"))
	}

	if c.SpamMinConfidence < 0 || c.SpamMinConfidence > 1 {
		errs = append(errs, fmt.Errorf("SpamMinConfidence must be between 0 and 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDuration parses a duration from an environment variable or uses a default.
func parseDuration(key, defaultValue string) (time.Duration, error) {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, value, err)
	}
	return duration, nil
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}

// parseFloat parses a float from an environment variable or uses a default.
func parseFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid float %q: %w", key, value, err)
	}
	return result, nil
}
