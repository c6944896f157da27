package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/ledgerlens/service/metrics"
	"github.com/brojonat/ledgerlens/service/solana"
	solanago "github.com/gagliardetto/solana-go"
)

// Source is the chain data a Normalizer reads from. *solana.Client satisfies it.
type Source interface {
	Balance(ctx context.Context, address solanago.PublicKey) (uint64, error)
	RecentTransactions(ctx context.Context, address solanago.PublicKey, limit int) ([]*solana.Transaction, error)
	AccountState(ctx context.Context, address solanago.PublicKey) (*solana.AccountState, error)
}

// SourceFunc resolves the Source for a lookup. An error here fails the whole lookup.
type SourceFunc func(ctx context.Context) (Source, error)

// StaticSource returns a SourceFunc that always yields src.
func StaticSource(src Source) SourceFunc {
	return func(context.Context) (Source, error) {
		return src, nil
	}
}

// ProviderSource adapts a solana.Provider to a SourceFunc.
func ProviderSource(p *solana.Provider) SourceFunc {
	return func(ctx context.Context) (Source, error) {
		client, err := p.Get(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// Snapshot field names used in logs, metrics and FailedFields.
const (
	FieldBalance      = "balance"
	FieldTransactions = "transactions"
	FieldState        = "state"
)

// Normalizer fetches and reshapes contract data for a single address.
type Normalizer struct {
	source  SourceFunc
	limit   int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewNormalizer creates a Normalizer. A limit <= 0 uses DefaultTransactionLimit.
// If metrics is nil, no metrics will be recorded.
func NewNormalizer(source SourceFunc, limit int, m *metrics.Metrics, logger *slog.Logger) *Normalizer {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	return &Normalizer{
		source:  source,
		limit:   limit,
		metrics: m,
		logger:  logger,
	}
}

// FetchSnapshot looks up balance, recent transactions and account state for address.
//
// An address that fails to parse returns an error wrapping ErrInvalidAddress
// before any network call. Each of the three fetches is isolated: a failure is
// logged, the field gets its sentinel and the others are unaffected. Only a
// failure to obtain a Source fails the whole lookup.
func (n *Normalizer) FetchSnapshot(ctx context.Context, address string) (*Snapshot, error) {
	start := time.Now()

	key, err := ParseAddress(address)
	if err != nil {
		n.recordLookup("invalid", 0, start)
		return nil, err
	}

	src, err := n.source(ctx)
	if err != nil {
		n.logger.ErrorContext(ctx, "failed to obtain chain client",
			"address", address,
			"error", err,
		)
		n.recordLookup("failed", 0, start)
		return nil, fmt.Errorf("failed to obtain chain client: %w", err)
	}

	snap := &Snapshot{
		Address:      address,
		Balance:      ZeroAmount,
		Transactions: []TransactionRecord{},
	}

	lamports, err := src.Balance(ctx, key)
	if n.observe(ctx, snap, FieldBalance, err) {
		snap.Balance = FormatAmount(lamports)
	}

	txns, err := src.RecentTransactions(ctx, key, n.limit)
	if n.observe(ctx, snap, FieldTransactions, err) {
		records := make([]TransactionRecord, 0, len(txns))
		for _, tx := range txns {
			records = append(records, NormalizeTransaction(key, tx))
		}
		snap.Transactions = records
	}

	state, err := src.AccountState(ctx, key)
	if errors.Is(err, solana.ErrAccountNotFound) {
		// An unfunded address is a normal result, not a failure.
		n.logger.DebugContext(ctx, "no account at address", "address", address)
		n.recordField(FieldState, "missing")
	} else if n.observe(ctx, snap, FieldState, err) && state != nil {
		snap.Code = state.Code
		snap.Data = state.Data
	}

	outcome := "complete"
	if snap.Partial() {
		outcome = "partial"
	}
	n.recordLookup(outcome, len(snap.Transactions), start)

	n.logger.InfoContext(ctx, "contract snapshot built",
		"address", address,
		"balance", snap.Balance,
		"transactions", len(snap.Transactions),
		"failed_fields", snap.FailedFields,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return snap, nil
}

// observe logs and records a field fetch. It returns true when the fetch succeeded.
func (n *Normalizer) observe(ctx context.Context, snap *Snapshot, field string, err error) bool {
	if err == nil {
		n.recordField(field, "success")
		return true
	}
	n.logger.ErrorContext(ctx, "field fetch failed, using default",
		"address", snap.Address,
		"field", field,
		"error", err,
	)
	n.recordField(field, "error")
	snap.FailedFields = append(snap.FailedFields, field)
	return false
}

func (n *Normalizer) recordField(field, status string) {
	if n.metrics != nil {
		n.metrics.RecordFieldFetch(field, status)
	}
}

func (n *Normalizer) recordLookup(outcome string, transactions int, start time.Time) {
	if n.metrics != nil {
		n.metrics.RecordLookup(outcome, transactions, time.Since(start).Seconds())
	}
}
