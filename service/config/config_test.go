package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultRPCURLs, cfg.SolanaRPCURLs)
	assert.Equal(t, 100, cfg.TransactionLimit)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.MarketAPIURL)
	assert.Equal(t, "sol", cfg.MarketSymbol)
	assert.Equal(t, 10*time.Second, cfg.MarketTimeout)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("SERVER_ADDR", ":9090")
	os.Setenv("LOG_LEVEL", "DEBUG")
	os.Setenv("SOLANA_RPC_URLS", " https://rpc-a.example.com , ,https://rpc-b.example.com")
	os.Setenv("TRANSACTION_LIMIT", "50")
	os.Setenv("PAGE_SIZE", "10")
	os.Setenv("MARKET_SYMBOL", "ton")
	os.Setenv("MARKET_TIMEOUT", "3s")
	os.Setenv("NATS_URL", "nats://localhost:4222")
	defer cleanupEnv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"https://rpc-a.example.com", "https://rpc-b.example.com"}, cfg.SolanaRPCURLs)
	assert.Equal(t, 50, cfg.TransactionLimit)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, "ton", cfg.MarketSymbol)
	assert.Equal(t, 3*time.Second, cfg.MarketTimeout)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
}

func TestLoad_InvalidValuesAccumulate(t *testing.T) {
	os.Setenv("TRANSACTION_LIMIT", "lots")
	os.Setenv("MARKET_TIMEOUT", "soon")
	defer cleanupEnv()

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "TRANSACTION_LIMIT: invalid integer")
	assert.Contains(t, err.Error(), "MARKET_TIMEOUT: invalid duration")
}

func TestLoad_BadRPCURL(t *testing.T) {
	os.Setenv("SOLANA_RPC_URLS", "not a url")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SolanaRPCURLs")
}

func TestLoad_TransactionLimitOutOfRange(t *testing.T) {
	os.Setenv("TRANSACTION_LIMIT", "5000")
	defer cleanupEnv()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TransactionLimit must be between")
}

func validConfig() *Config {
	return &Config{
		ServerAddr:       ":8080",
		LogLevel:         "info",
		SolanaRPCURLs:    []string{"https://api.mainnet-beta.solana.com"},
		TransactionLimit: 100,
		PageSize:         20,
		MarketAPIURL:     "https://api.coingecko.com/api/v3",
		MarketSymbol:     "sol",
		MarketTimeout:    10 * time.Second,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no endpoints", func(c *Config) { c.SolanaRPCURLs = nil }, "at least one Solana RPC URL"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "LogLevel"},
		{"zero page size", func(c *Config) { c.PageSize = 0 }, "PageSize must be at least 1"},
		{"zero limit", func(c *Config) { c.TransactionLimit = 0 }, "TransactionLimit"},
		{"market url", func(c *Config) { c.MarketAPIURL = "ftp://prices" }, "MarketAPIURL"},
		{"market timeout", func(c *Config) { c.MarketTimeout = 0 }, "MarketTimeout must be positive"},
		{"server addr", func(c *Config) { c.ServerAddr = "" }, "ServerAddr is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMustLoad_Panics(t *testing.T) {
	os.Setenv("PAGE_SIZE", "-1")
	defer cleanupEnv()

	assert.Panics(t, func() { MustLoad() })
}

func TestMustLoad_Success(t *testing.T) {
	cleanupEnv()

	assert.NotPanics(t, func() {
		cfg := MustLoad()
		assert.NotNil(t, cfg)
	})
}

// cleanupEnv clears all environment variables used in tests
func cleanupEnv() {
	for _, key := range []string{
		"SERVER_ADDR", "LOG_LEVEL", "SOLANA_RPC_URLS", "TRANSACTION_LIMIT",
		"PAGE_SIZE", "MARKET_API_URL", "MARKET_SYMBOL", "MARKET_TIMEOUT", "NATS_URL",
	} {
		os.Unsetenv(key)
	}
}
