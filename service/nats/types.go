package nats

import (
	"time"

	"github.com/brojonat/ledgerlens/service/contract"
)

// LookupEvent is published to "lookups.{address}" after each completed lookup.
type LookupEvent struct {
	Address          string    `json:"address"`
	Balance          string    `json:"balance"`
	TransactionCount int       `json:"transaction_count"`
	Partial          bool      `json:"partial"`
	Errors           []string  `json:"errors,omitempty"` // fields that fell back to defaults
	LookedUpAt       time.Time `json:"looked_up_at"`
}

// FromSnapshot converts a lookup result into an event.
func FromSnapshot(snap *contract.Snapshot, at time.Time) *LookupEvent {
	return &LookupEvent{
		Address:          snap.Address,
		Balance:          snap.Balance,
		TransactionCount: len(snap.Transactions),
		Partial:          snap.Partial(),
		Errors:           append([]string(nil), snap.FailedFields...),
		LookedUpAt:       at.UTC(),
	}
}

// Subject returns the subject an event for address is published on.
func Subject(address string) string {
	return SubjectPrefix + address
}
