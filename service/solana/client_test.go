package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRPCClient implements RPCClient for testing.
// It's behavior-focused: we set what it should return, not verify call sequences.
type mockRPCClient struct {
	balance      uint64
	balanceErr   error
	signatures   []*rpc.TransactionSignature
	sigErr       error
	transactions map[solana.Signature]*rpc.GetTransactionResult
	txErr        map[solana.Signature]error
	accounts     map[solana.PublicKey]*rpc.Account
	accountErr   error
	healthErr    error

	lastLimit int
}

func (m *mockRPCClient) GetHealth(ctx context.Context) (string, error) {
	if m.healthErr != nil {
		return "", m.healthErr
	}
	return "ok", nil
}

func (m *mockRPCClient) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	return m.balance, m.balanceErr
}

func (m *mockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	if opts != nil && opts.Limit != nil {
		m.lastLimit = *opts.Limit
	}
	if m.sigErr != nil {
		return nil, m.sigErr
	}
	return m.signatures, nil
}

func (m *mockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	if err := m.txErr[signature]; err != nil {
		return nil, err
	}
	return m.transactions[signature], nil
}

func (m *mockRPCClient) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.Account, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	account, ok := m.accounts[address]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return account, nil
}

func newTestClient(mock *mockRPCClient) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(mock, "test", nil, logger)
}

func TestBalance(t *testing.T) {
	client := newTestClient(&mockRPCClient{balance: 1_500_000_000})

	lamports, err := client.Balance(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), lamports)
}

func TestBalance_Error(t *testing.T) {
	client := newTestClient(&mockRPCClient{balanceErr: assert.AnError})

	_, err := client.Balance(context.Background(), walletA)
	require.ErrorIs(t, err, assert.AnError)
}

func TestRecentTransactions_PreservesOrderAndLimit(t *testing.T) {
	sig1, sig2, sig3 := testSignature(1), testSignature(2), testSignature(3)
	t1 := solana.UnixTimeSeconds(300)
	t2 := solana.UnixTimeSeconds(200)
	t3 := solana.UnixTimeSeconds(100)

	envelope, err := makeTransactionEnvelope(solTransferTx(walletB, walletA, 1_000_000_000))
	require.NoError(t, err)

	mock := &mockRPCClient{
		signatures: []*rpc.TransactionSignature{
			{Signature: sig1, Slot: 3, BlockTime: &t1},
			{Signature: sig2, Slot: 2, BlockTime: &t2},
			{Signature: sig3, Slot: 1, BlockTime: &t3},
		},
		transactions: map[solana.Signature]*rpc.GetTransactionResult{
			sig1: {Transaction: envelope},
			sig3: {Transaction: envelope},
		},
		txErr: map[solana.Signature]error{
			sig2: errors.New("transaction pruned"),
		},
	}
	client := newTestClient(mock)

	txns, err := client.RecentTransactions(context.Background(), walletA, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, mock.lastLimit)

	require.Len(t, txns, 3)
	assert.Equal(t, sig1, txns[0].Signature)
	assert.Equal(t, sig2, txns[1].Signature)
	assert.Equal(t, sig3, txns[2].Signature)

	// Detail fetch failure keeps the record with metadata only
	assert.True(t, txns[0].Detailed)
	assert.False(t, txns[1].Detailed)
	assert.Empty(t, txns[1].Transfers)
	assert.Equal(t, int64(200), txns[1].BlockTime)
	assert.Len(t, txns[2].Transfers, 1)
}

func TestRecentTransactions_EmptyResult(t *testing.T) {
	client := newTestClient(&mockRPCClient{signatures: []*rpc.TransactionSignature{}})

	txns, err := client.RecentTransactions(context.Background(), walletA, 10)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestRecentTransactions_ErrorFromRPC(t *testing.T) {
	client := newTestClient(&mockRPCClient{sigErr: assert.AnError})

	txns, err := client.RecentTransactions(context.Background(), walletA, 10)
	require.Error(t, err)
	assert.Nil(t, txns)
}

func TestAccountState_DataAccount(t *testing.T) {
	mock := &mockRPCClient{
		accounts: map[solana.PublicKey]*rpc.Account{
			walletA: {
				Lamports: 10,
				Owner:    TokenProgramID,
				Data:     rpc.DataBytesOrJSONFromBytes([]byte{1, 2, 3}),
			},
		},
	}
	client := newTestClient(mock)

	state, err := client.AccountState(context.Background(), walletA)
	require.NoError(t, err)
	assert.False(t, state.Executable)
	assert.Equal(t, []byte{1, 2, 3}, state.Data)
	assert.Nil(t, state.Code)
}

func TestAccountState_UpgradeableProgram(t *testing.T) {
	program := make([]byte, 36)
	binary.LittleEndian.PutUint32(program[0:4], upgradeableProgramTag)
	copy(program[4:], walletB[:])

	programData := make([]byte, programDataHeaderSize+2)
	binary.LittleEndian.PutUint32(programData[0:4], upgradeableProgramDataTag)
	copy(programData[programDataHeaderSize:], []byte{0xca, 0xfe})

	mock := &mockRPCClient{
		accounts: map[solana.PublicKey]*rpc.Account{
			walletA: {
				Owner:      BPFLoaderUpgradeableID,
				Executable: true,
				Data:       rpc.DataBytesOrJSONFromBytes(program),
			},
			walletB: {
				Owner: BPFLoaderUpgradeableID,
				Data:  rpc.DataBytesOrJSONFromBytes(programData),
			},
		},
	}
	client := newTestClient(mock)

	state, err := client.AccountState(context.Background(), walletA)
	require.NoError(t, err)
	assert.True(t, state.Executable)
	assert.Equal(t, []byte{0xca, 0xfe}, state.Code)
	assert.Nil(t, state.Data)
}

func TestAccountState_ProgramDataMissingKeepsProgramBytes(t *testing.T) {
	program := make([]byte, 36)
	binary.LittleEndian.PutUint32(program[0:4], upgradeableProgramTag)
	copy(program[4:], walletB[:])

	mock := &mockRPCClient{
		accounts: map[solana.PublicKey]*rpc.Account{
			walletA: {
				Owner:      BPFLoaderUpgradeableID,
				Executable: true,
				Data:       rpc.DataBytesOrJSONFromBytes(program),
			},
		},
	}
	client := newTestClient(mock)

	state, err := client.AccountState(context.Background(), walletA)
	require.NoError(t, err)
	assert.Equal(t, program, state.Code)
}

func TestAccountState_NotFound(t *testing.T) {
	client := newTestClient(&mockRPCClient{})

	_, err := client.AccountState(context.Background(), walletA)
	require.ErrorIs(t, err, ErrAccountNotFound)
}
