// Package market fetches display-only price data from the CoinGecko API.
// Nothing here participates in contract lookups.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brojonat/ledgerlens/service/metrics"
)

// DefaultBaseURL is the public CoinGecko v3 API.
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// ErrNoMarketData is returned when the API knows nothing about the coin.
var ErrNoMarketData = errors.New("no market data")

// coinIDs maps ticker symbols to CoinGecko coin ids.
var coinIDs = map[string]string{
	"sol":  "solana",
	"ton":  "the-open-network",
	"btc":  "bitcoin",
	"eth":  "ethereum",
	"usdc": "usd-coin",
}

// CoinID resolves a symbol to a CoinGecko id. Unknown symbols are passed
// through lowercased so callers can use raw ids.
func CoinID(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if id, ok := coinIDs[s]; ok {
		return id
	}
	return s
}

// MarketData is the USD market summary for one coin.
type MarketData struct {
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
	MarketCap                float64 `json:"market_cap"`
	TotalVolume              float64 `json:"total_volume"`
	High24h                  float64 `json:"high_24h"`
	Low24h                   float64 `json:"low_24h"`
	ATH                      float64 `json:"ath"`
	ATL                      float64 `json:"atl"`
	CirculatingSupply        float64 `json:"circulating_supply"`
}

// Client queries the CoinGecko markets endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a market data client. A nil httpClient gets a 10s timeout;
// nil metrics disables recording.
func NewClient(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    m,
		logger:     logger,
	}
}

// Fetch returns the market summary for symbol.
func (c *Client) Fetch(ctx context.Context, symbol string) (*MarketData, error) {
	start := time.Now()
	data, err := c.fetch(ctx, CoinID(symbol))

	status := "success"
	switch {
	case errors.Is(err, ErrNoMarketData):
		status = "empty"
	case err != nil:
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordMarketFetch(status, time.Since(start).Seconds())
	}
	if err != nil {
		c.logger.WarnContext(ctx, "market data fetch failed", "symbol", symbol, "error", err)
		return nil, err
	}
	return data, nil
}

func (c *Client) fetch(ctx context.Context, id string) (*MarketData, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrNoMarketData)
	}

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("ids", id)
	u := c.baseURL + "/coins/markets?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []MarketData
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w for %q", ErrNoMarketData, id)
	}
	return &results[0], nil
}
