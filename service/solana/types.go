package solana

import (
	"github.com/gagliardetto/solana-go"
)

// Transfer is a single value movement decoded from a transaction instruction.
type Transfer struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
	// Wallets owning Source and Destination when those are SPL token
	// accounts, resolved from the transaction's token balances. Zero otherwise.
	SourceOwner      solana.PublicKey
	DestinationOwner solana.PublicKey
	Amount           uint64
	Decimals         int               // 9 for SOL; UnknownDecimals when neither the instruction nor metadata carries them
	TokenMint        *solana.PublicKey // nil for native SOL transfers
}

// Credits reports whether the transfer pays wallet, directly or into a token
// account wallet owns.
func (t Transfer) Credits(wallet solana.PublicKey) bool {
	return t.Destination.Equals(wallet) || (!t.DestinationOwner.IsZero() && t.DestinationOwner.Equals(wallet))
}

// Debits reports whether the transfer is paid by wallet or a token account it owns.
func (t Transfer) Debits(wallet solana.PublicKey) bool {
	return t.Source.Equals(wallet) || (!t.SourceOwner.IsZero() && t.SourceOwner.Equals(wallet))
}

// Transaction represents a Solana transaction touching the looked-up address.
// This is our domain model, independent of the RPC response format.
type Transaction struct {
	Signature solana.Signature
	Slot      uint64
	BlockTime int64 // unix seconds, 0 when the node did not report one
	Transfers []Transfer
	Err       *string // nil if transaction succeeded, contains error message if failed

	// Detailed is false when only signature metadata could be fetched.
	Detailed bool
}

// AccountState is the on-chain state of an account.
// Code is set for executable accounts, Data for everything else.
type AccountState struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Executable bool
	Code       []byte
	Data       []byte
}
