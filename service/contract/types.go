// Package contract turns raw chain lookups into UI-ready contract snapshots.
package contract

import "errors"

// Sentinel values substituted when a real value cannot be obtained.
const (
	NotAvailable = "N/A"
	ZeroAmount   = "0"
)

// DefaultTransactionLimit is the size of the recent-transaction window.
const DefaultTransactionLimit = 100

// ErrInvalidAddress is returned when an address does not parse as a Solana public key.
var ErrInvalidAddress = errors.New("invalid address")

// TxType is the direction of a transaction relative to the looked-up address.
type TxType string

const (
	TxIn  TxType = "in"
	TxOut TxType = "out"
)

// TransactionRecord is a flattened, display-ready transaction.
type TransactionRecord struct {
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"` // unix seconds, 0 when unknown
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    string `json:"amount"`
	Type      TxType `json:"type"`
}

// Snapshot is the point-in-time result of a single contract lookup.
// It is built once by FetchSnapshot and not modified afterward.
type Snapshot struct {
	Address      string              `json:"address"`
	Balance      string              `json:"balance"`
	Transactions []TransactionRecord `json:"transactions"`
	Code         []byte              `json:"code"`
	Data         []byte              `json:"data"`

	// FailedFields names the fields that fell back to sentinels.
	// Kept for logs and events only; never rendered.
	FailedFields []string `json:"-"`
}

// Partial reports whether any field fell back to its sentinel because of a fetch error.
func (s *Snapshot) Partial() bool {
	return len(s.FailedFields) > 0
}
