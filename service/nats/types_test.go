package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/brojonat/ledgerlens/service/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSnapshot(t *testing.T) {
	at := time.Date(2024, 6, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	snap := &contract.Snapshot{
		Address:      "So11111111111111111111111111111111111111112",
		Balance:      "0",
		Transactions: []contract.TransactionRecord{{Hash: "a"}, {Hash: "b"}},
		FailedFields: []string{contract.FieldBalance},
	}

	event := FromSnapshot(snap, at)
	assert.Equal(t, snap.Address, event.Address)
	assert.Equal(t, "0", event.Balance)
	assert.Equal(t, 2, event.TransactionCount)
	assert.True(t, event.Partial)
	assert.Equal(t, []string{"balance"}, event.Errors)
	assert.Equal(t, time.UTC, event.LookedUpAt.Location())

	raw, err := json.Marshal(event)
	require.NoError(t, err)
	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	for _, key := range []string{"address", "balance", "transaction_count", "partial", "errors", "looked_up_at"} {
		assert.Contains(t, fields, key)
	}
}

func TestFromSnapshot_Complete(t *testing.T) {
	event := FromSnapshot(&contract.Snapshot{Address: "x", Balance: "1.00"}, time.Now())
	assert.False(t, event.Partial)
	assert.Empty(t, event.Errors)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "lookups.abc", Subject("abc"))
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	ctx := context.Background()

	require.NoError(t, m.PublishLookup(ctx, &LookupEvent{Address: "a"}))
	require.NoError(t, m.PublishLookup(ctx, &LookupEvent{Address: "b"}))
	assert.Len(t, m.Events(), 2)
	assert.Len(t, m.EventsForAddress("a"), 1)

	m.SetPublishError(errors.New("nats down"))
	assert.Error(t, m.PublishLookup(ctx, &LookupEvent{Address: "c"}))
	assert.Len(t, m.Events(), 2)

	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
}
