package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/brojonat/ledgerlens/service/market"
	"github.com/brojonat/ledgerlens/service/view"
)

const (
	maxAddressLength = 100 // Solana addresses are at most 44 chars, give buffer

	// isoLayout matches JavaScript's Date.prototype.toISOString.
	isoLayout = "2006-01-02T15:04:05.000Z07:00"

	msgAddressRequired = "address parameter is required"
	msgInvalidAddress  = "invalid address"
	msgLookupFailed    = "failed to fetch contract data"
)

var (
	// Valid Solana address characters: base58 (no 0, O, I, l)
	validAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]+$`)
)

type transactionResponse struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"` // ISO-8601 or "N/A"
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Type      string `json:"type"`
}

type contractResponse struct {
	Address      string                `json:"address"`
	Balance      string                `json:"balance"`
	Transactions []transactionResponse `json:"transactions"`
	Code         []byte                `json:"code"`
	Data         []byte                `json:"data"`
}

type totalsResponse struct {
	Incoming string `json:"incoming"`
	Outgoing string `json:"outgoing"`
}

type chartResponse struct {
	Address string         `json:"address"`
	Type    view.Filter    `json:"type"`
	Series  []view.Point   `json:"series"`
	Totals  totalsResponse `json:"totals"`
	Pie     []view.Slice   `json:"pie"`
}

// pageCharts is the chart data embedded in the explorer page: a line series
// per filter plus the direction totals, all from the snapshot the table shows.
type pageCharts struct {
	Series map[view.Filter][]view.Point `json:"series"`
	Totals totalsResponse               `json:"totals"`
	Pie    []view.Slice                 `json:"pie"`
}

// handleContract returns a handler that looks up a contract address.
// GET /api/contract?address={address}
func handleContract(lookups *lookupService, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := lookupFromQuery(w, r, lookups, logger)
		if !ok {
			return
		}
		writeJSON(w, snapshotToResponse(snap), http.StatusOK)
	})
}

// handleContractChart returns the chart series for a contract's transactions.
// GET /api/contract/chart?address={address}&type={all|in|out}
func handleContractChart(lookups *lookupService, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap, ok := lookupFromQuery(w, r, lookups, logger)
		if !ok {
			return
		}
		filter := view.ParseFilter(r.URL.Query().Get("type"))
		writeJSON(w, buildChart(snap, filter), http.StatusOK)
	})
}

// handleMarket returns display-only market data for a symbol.
// GET /api/market?symbol={symbol}
func handleMarket(fetcher MarketFetcher, defaultSymbol string, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fetcher == nil {
			writeError(w, "market data unavailable", http.StatusServiceUnavailable)
			return
		}

		symbol := strings.TrimSpace(r.URL.Query().Get("symbol"))
		if symbol == "" {
			symbol = defaultSymbol
		}

		data, err := fetcher.Fetch(r.Context(), symbol)
		if errors.Is(err, market.ErrNoMarketData) {
			writeError(w, fmt.Sprintf("no market data for %q", symbol), http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Warn("market fetch failed", "symbol", symbol, "error", err)
			writeError(w, "failed to fetch market data", http.StatusBadGateway)
			return
		}
		writeJSON(w, data, http.StatusOK)
	})
}

// lookupFromQuery validates the address query parameter and runs the lookup,
// writing the error response itself when it returns false.
func lookupFromQuery(w http.ResponseWriter, r *http.Request, lookups *lookupService, logger *slog.Logger) (*contract.Snapshot, bool) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	if address == "" {
		writeError(w, msgAddressRequired, http.StatusBadRequest)
		return nil, false
	}

	if err := validateAddress(address); err != nil {
		logger.Debug("invalid address", "address", truncateForLog(address), "error", err)
		writeError(w, msgInvalidAddress, http.StatusBadRequest)
		return nil, false
	}

	snap, err := lookups.Lookup(r.Context(), address)
	if err != nil {
		msg, status := lookupError(err)
		if status >= 500 {
			logger.Error("contract lookup failed", "address", address, "error", err)
		}
		writeError(w, msg, status)
		return nil, false
	}
	return snap, true
}

// lookupError maps a lookup error to a client message and status code.
func lookupError(err error) (string, int) {
	if errors.Is(err, contract.ErrInvalidAddress) {
		return msgInvalidAddress, http.StatusBadRequest
	}
	return msgLookupFailed, http.StatusInternalServerError
}

func snapshotToResponse(snap *contract.Snapshot) contractResponse {
	txs := make([]transactionResponse, len(snap.Transactions))
	for i, tx := range snap.Transactions {
		txs[i] = transactionResponse{
			Hash:      tx.Hash,
			Timestamp: formatISO(tx.Timestamp),
			From:      tx.From,
			To:        tx.To,
			Amount:    tx.Amount,
			Type:      string(tx.Type),
		}
	}
	return contractResponse{
		Address:      snap.Address,
		Balance:      snap.Balance,
		Transactions: txs,
		Code:         snap.Code,
		Data:         snap.Data,
	}
}

// buildChart filters only the line series; totals always cover every record.
func buildChart(snap *contract.Snapshot, filter view.Filter) chartResponse {
	totals := view.Aggregate(snap.Transactions)
	return chartResponse{
		Address: snap.Address,
		Type:    filter,
		Series:  view.LineSeries(snap.Transactions, filter),
		Totals:  toTotalsResponse(totals),
		Pie:     totals.PieSlices(),
	}
}

func buildPageCharts(snap *contract.Snapshot) pageCharts {
	totals := view.Aggregate(snap.Transactions)
	series := make(map[view.Filter][]view.Point, 3)
	for _, f := range []view.Filter{view.FilterAll, view.FilterIn, view.FilterOut} {
		series[f] = view.LineSeries(snap.Transactions, f)
	}
	return pageCharts{
		Series: series,
		Totals: toTotalsResponse(totals),
		Pie:    totals.PieSlices(),
	}
}

func toTotalsResponse(t view.Totals) totalsResponse {
	return totalsResponse{
		Incoming: t.Incoming.String(),
		Outgoing: t.Outgoing.String(),
	}
}

// formatISO renders unix seconds as ISO-8601, or the sentinel for unknown times.
func formatISO(ts int64) string {
	if ts <= 0 {
		return contract.NotAvailable
	}
	return time.Unix(ts, 0).UTC().Format(isoLayout)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// validateAddress rejects input that cannot be a base58 account address
// before any RPC work is done.
func validateAddress(address string) error {
	if address == "" {
		return errorf("address is required")
	}

	if len(address) > maxAddressLength {
		return errorf("address too long: maximum length is %d characters", maxAddressLength)
	}

	for _, r := range address {
		if r == 0 || unicode.IsControl(r) {
			return errorf("invalid characters in address: control characters not allowed")
		}
	}

	if !validAddressRegex.MatchString(address) {
		return errorf("invalid address format: must contain only valid base58 characters")
	}

	return nil
}

func truncateForLog(s string) string {
	return view.Truncate(s, maxAddressLength)
}

// errorf creates a formatted error.
func errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
