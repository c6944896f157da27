package solana

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brojonat/ledgerlens/service/metrics"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// RPCClient is an interface for the Solana RPC operations we need.
// This allows us to mock the RPC layer in tests without hitting real Solana nodes.
type RPCClient interface {
	GetHealth(ctx context.Context) (string, error)

	GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error)

	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts *rpc.GetSignaturesForAddressOpts,
	) ([]*rpc.TransactionSignature, error)

	GetTransaction(
		ctx context.Context,
		signature solana.Signature,
		opts *rpc.GetTransactionOpts,
	) (*rpc.GetTransactionResult, error)

	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.Account, error)
}

// ErrAccountNotFound is returned by AccountState when the address holds no account.
var ErrAccountNotFound = errors.New("account not found")

// Client provides read-only lookups against a single Solana RPC endpoint.
type Client struct {
	rpc      RPCClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	endpoint string // RPC endpoint identifier for metrics labeling
}

// NewClient creates a new Solana client.
// If metrics is nil, no metrics will be recorded.
func NewClient(rpcClient RPCClient, endpoint string, m *metrics.Metrics, logger *slog.Logger) *Client {
	return &Client{
		rpc:      rpcClient,
		logger:   logger,
		metrics:  m,
		endpoint: endpoint,
	}
}

// Endpoint returns the RPC endpoint this client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Balance returns the account balance in lamports.
func (c *Client) Balance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	start := time.Now()
	lamports, err := c.rpc.GetBalance(ctx, address)
	c.record("GetBalance", start, err)
	if err != nil {
		return 0, err
	}

	c.logger.DebugContext(ctx, "fetched balance",
		"address", address.String(),
		"lamports", lamports,
	)
	return lamports, nil
}

// RecentTransactions returns up to limit of the most recent transactions for address,
// in the order the node returned them (newest first).
//
// A transaction whose details cannot be fetched or decoded is still returned with
// signature metadata only, so the caller never loses a record.
func (c *Client) RecentTransactions(ctx context.Context, address solana.PublicKey, limit int) ([]*Transaction, error) {
	opts := &rpc.GetSignaturesForAddressOpts{
		Limit: &limit,
	}

	c.logger.DebugContext(ctx, "calling GetSignaturesForAddress",
		"address", address.String(),
		"limit", limit,
	)

	start := time.Now()
	signatures, err := c.rpc.GetSignaturesForAddress(ctx, address, opts)
	c.record("GetSignaturesForAddress", start, err)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to get signatures",
			"address", address.String(),
			"error", err,
		)
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.RecordRPCSignaturesPerCall(c.endpoint, float64(len(signatures)))
	}

	maxVersion := uint64(0)
	transactions := make([]*Transaction, 0, len(signatures))
	for _, sig := range signatures {
		txnOpts := &rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			MaxSupportedTransactionVersion: &maxVersion,
		}

		txnStart := time.Now()
		result, err := c.rpc.GetTransaction(ctx, sig.Signature, txnOpts)
		c.record("GetTransaction", txnStart, err)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to get transaction details, using metadata only",
				"signature", sig.Signature.String(),
				"error", err,
			)
			transactions = append(transactions, signatureToDomain(sig))
			continue
		}

		txn, err := parseTransactionFromResult(sig, result)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to parse transaction, using metadata only",
				"signature", sig.Signature.String(),
				"error", err,
			)
			transactions = append(transactions, signatureToDomain(sig))
			continue
		}
		transactions = append(transactions, txn)
	}

	c.logger.DebugContext(ctx, "fetched and parsed transactions",
		"address", address.String(),
		"count", len(transactions),
	)

	return transactions, nil
}

// AccountState returns the code or data held by address.
// For upgradeable programs the executable bytes are read from the program-data account.
func (c *Client) AccountState(ctx context.Context, address solana.PublicKey) (*AccountState, error) {
	account, err := c.accountInfo(ctx, address)
	if err != nil {
		return nil, err
	}

	state := &AccountState{
		Lamports:   account.Lamports,
		Owner:      account.Owner,
		Executable: account.Executable,
	}

	var raw []byte
	if account.Data != nil {
		raw = account.Data.GetBinary()
	}

	if !account.Executable {
		state.Data = raw
		return state, nil
	}

	state.Code = raw
	if !account.Owner.Equals(BPFLoaderUpgradeableID) {
		return state, nil
	}

	programData, ok := programDataAddress(raw)
	if !ok {
		return state, nil
	}
	pd, err := c.accountInfo(ctx, programData)
	if err != nil {
		// Keep the program account bytes; the program-data lookup is best effort.
		c.logger.WarnContext(ctx, "failed to load program data account",
			"address", address.String(),
			"program_data", programData.String(),
			"error", err,
		)
		return state, nil
	}
	if pd.Data != nil {
		if code, ok := programDataCode(pd.Data.GetBinary()); ok {
			state.Code = code
		}
	}
	return state, nil
}

// Health asks the node whether it is healthy.
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	_, err := c.rpc.GetHealth(ctx)
	c.record("GetHealth", start, err)
	return err
}

func (c *Client) accountInfo(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	start := time.Now()
	account, err := c.rpc.GetAccountInfo(ctx, address)
	if errors.Is(err, rpc.ErrNotFound) {
		err = ErrAccountNotFound
	}
	c.record("GetAccountInfo", start, err)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// record tracks an RPC call outcome in metrics.
func (c *Client) record(method string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, c.endpoint, time.Since(start).Seconds())
}
