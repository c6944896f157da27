package market

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brojonat/ledgerlens/service/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const solanaMarkets = `[{
	"id": "solana",
	"symbol": "sol",
	"name": "Solana",
	"current_price": 142.37,
	"price_change_percentage_24h": -2.41,
	"market_cap": 66000000000,
	"total_volume": 2100000000,
	"high_24h": 147.1,
	"low_24h": 139.8,
	"ath": 259.96,
	"atl": 0.500801,
	"circulating_supply": 463000000.5
}]`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCoinID(t *testing.T) {
	assert.Equal(t, "solana", CoinID("sol"))
	assert.Equal(t, "solana", CoinID(" SOL "))
	assert.Equal(t, "the-open-network", CoinID("ton"))
	assert.Equal(t, "dogecoin", CoinID("dogecoin"))
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "solana", r.URL.Query().Get("ids"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, solanaMarkets)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	c := NewClient(server.URL, nil, m, discardLogger())

	data, err := c.Fetch(context.Background(), "sol")
	require.NoError(t, err)
	assert.Equal(t, "Solana", data.Name)
	assert.InDelta(t, 142.37, data.CurrentPrice, 1e-9)
	assert.InDelta(t, -2.41, data.PriceChangePercentage24h, 1e-9)
	assert.InDelta(t, 66e9, data.MarketCap, 1)
	assert.InDelta(t, 147.1, data.High24h, 1e-9)
	assert.InDelta(t, 139.8, data.Low24h, 1e-9)
	assert.InDelta(t, 259.96, data.ATH, 1e-9)
	assert.InDelta(t, 0.500801, data.ATL, 1e-9)
	assert.InDelta(t, 463000000.5, data.CirculatingSupply, 1e-3)

	expected := `
# HELP market_fetches_total Total number of market data fetches by status
# TYPE market_fetches_total counter
market_fetches_total{status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "market_fetches_total"))
}

func TestFetch_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil, discardLogger())
	_, err := c.Fetch(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoMarketData)
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"status":{"error_code":429}}`)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil, discardLogger())
	_, err := c.Fetch(context.Background(), "sol")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoMarketData)
	assert.Contains(t, err.Error(), "429")
}

func TestFetch_BadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer server.Close()

	c := NewClient(server.URL, nil, nil, discardLogger())
	_, err := c.Fetch(context.Background(), "sol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestFetch_EmptySymbol(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", nil, nil, discardLogger())
	_, err := c.Fetch(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoMarketData)
}
