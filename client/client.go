package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Transaction is one row of a contract's recent transactions.
type Transaction struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"` // ISO-8601 or "N/A"
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Type      string `json:"type"` // in, out
}

// Contract is the server's view of an address.
type Contract struct {
	Address      string        `json:"address"`
	Balance      string        `json:"balance"`
	Transactions []Transaction `json:"transactions"`
	Code         []byte        `json:"code"`
	Data         []byte        `json:"data"`
}

// ChartPoint is one sample of the amount-over-time series.
type ChartPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Type   string  `json:"type"`
}

// Chart is the chart data for a contract.
type Chart struct {
	Address string       `json:"address"`
	Type    string       `json:"type"`
	Series  []ChartPoint `json:"series"`
	Totals  struct {
		Incoming string `json:"incoming"`
		Outgoing string `json:"outgoing"`
	} `json:"totals"`
}

// MarketData is the USD market summary for a coin.
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

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// Client is the HTTP client for the ledgerlens API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new API client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Contract looks up an address.
func (c *Client) Contract(ctx context.Context, address string) (*Contract, error) {
	q := url.Values{}
	q.Set("address", address)

	var out Contract
	if err := c.getJSON(ctx, "/api/contract?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	c.logger.Debug("contract fetched", "address", out.Address, "transactions", len(out.Transactions))
	return &out, nil
}

// Chart fetches chart data for an address; txType is all, in or out.
func (c *Client) Chart(ctx context.Context, address, txType string) (*Chart, error) {
	q := url.Values{}
	q.Set("address", address)
	if txType != "" {
		q.Set("type", txType)
	}

	var out Chart
	if err := c.getJSON(ctx, "/api/contract/chart?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Market fetches market data for a symbol. An empty symbol uses the server default.
func (c *Client) Market(ctx context.Context, symbol string) (*MarketData, error) {
	path := "/api/market"
	if symbol != "" {
		path += "?" + url.Values{"symbol": {symbol}}.Encode()
	}

	var out MarketData
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.get(ctx, "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

// Version returns the server's build version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var out struct {
		Version string `json:"version"`
	}
	if err := c.getJSON(ctx, "/version", &out); err != nil {
		return "", err
	}
	return out.Version, nil
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
}
