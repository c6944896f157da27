package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultRPCURLs are public Solana mainnet endpoints used when
// SOLANA_RPC_URLS is unset.
var DefaultRPCURLs = []string{
	"https://api.mainnet-beta.solana.com",
	"https://solana-rpc.publicnode.com",
}

// MaxTransactionLimit caps TRANSACTION_LIMIT; larger pages are rejected by
// most public RPC nodes.
const MaxTransactionLimit = 1000

// Config holds all application configuration loaded from environment variables.
// All fields are validated at startup to ensure fail-fast behavior.
type Config struct {
	// Server configuration
	ServerAddr string
	LogLevel   string

	// Solana configuration
	SolanaRPCURLs    []string
	TransactionLimit int

	// Presentation
	PageSize int

	// Market data configuration
	MarketAPIURL  string
	MarketSymbol  string
	MarketTimeout time.Duration

	// NATS configuration; empty disables lookup events
	NATSURL string
}

// Load reads configuration from environment variables and validates it.
// Returns an error listing every invalid setting.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.ServerAddr = getEnvOrDefault("SERVER_ADDR", ":8080")
	cfg.LogLevel = strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))

	cfg.SolanaRPCURLs = parseList("SOLANA_RPC_URLS", DefaultRPCURLs)

	limit, err := parseInt("TRANSACTION_LIMIT", 100)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.TransactionLimit = limit

	pageSize, err := parseInt("PAGE_SIZE", 20)
	if err != nil {
		errs = append(errs, err)
	}
	cfg.PageSize = pageSize

	cfg.MarketAPIURL = getEnvOrDefault("MARKET_API_URL", "https://api.coingecko.com/api/v3")
	cfg.MarketSymbol = getEnvOrDefault("MARKET_SYMBOL", "sol")
	timeout, err := parseDuration("MARKET_TIMEOUT", "10s")
	if err != nil {
		errs = append(errs, err)
	}
	cfg.MarketTimeout = timeout

	cfg.NATSURL = os.Getenv("NATS_URL")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
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

	if c.ServerAddr == "" {
		errs = append(errs, fmt.Errorf("ServerAddr is required"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LogLevel %q must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(c.SolanaRPCURLs) == 0 {
		errs = append(errs, fmt.Errorf("at least one Solana RPC URL is required"))
	}
	for _, raw := range c.SolanaRPCURLs {
		if err := validateHTTPURL(raw); err != nil {
			errs = append(errs, fmt.Errorf("SolanaRPCURLs: %w", err))
		}
	}

	if c.TransactionLimit < 1 || c.TransactionLimit > MaxTransactionLimit {
		errs = append(errs, fmt.Errorf("TransactionLimit must be between 1 and %d", MaxTransactionLimit))
	}

	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("PageSize must be at least 1"))
	}

	if err := validateHTTPURL(c.MarketAPIURL); err != nil {
		errs = append(errs, fmt.Errorf("MarketAPIURL: %w", err))
	}

	if c.MarketTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MarketTimeout must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %w", errors.Join(errs...))
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid URL %q: expected http(s)://host", raw)
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

// parseList splits a comma separated variable, dropping blank entries.
func parseList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
