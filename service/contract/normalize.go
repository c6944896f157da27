package contract

import (
	"encoding/hex"
	"fmt"

	"github.com/brojonat/ledgerlens/service/solana"
	solanago "github.com/gagliardetto/solana-go"
)

// ParseAddress validates address against the Solana address grammar.
func ParseAddress(address string) (solanago.PublicKey, error) {
	key, err := solanago.PublicKeyFromBase58(address)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("%w %q: %w", ErrInvalidAddress, address, err)
	}
	return key, nil
}

// NormalizeTransaction flattens tx into a TransactionRecord relative to owner.
//
// A transfer credited to owner is the inbound message and makes the record
// "in". Without one the record is "out", and its parties come from the first
// transfer debited from owner if there is one. Missing pieces become
// sentinels; the record itself is always produced.
func NormalizeTransaction(owner solanago.PublicKey, tx *solana.Transaction) TransactionRecord {
	rec := TransactionRecord{
		Hash:   NotAvailable,
		From:   NotAvailable,
		To:     NotAvailable,
		Amount: ZeroAmount,
		Type:   TxOut,
	}
	if tx == nil {
		return rec
	}

	rec.Timestamp = tx.BlockTime
	if tx.Signature != (solanago.Signature{}) {
		rec.Hash = hex.EncodeToString(tx.Signature[:])
	}

	if in, ok := findTransfer(tx.Transfers, func(t solana.Transfer) bool { return t.Credits(owner) }); ok {
		rec.Type = TxIn
		fillParties(&rec, in)
		return rec
	}
	if out, ok := findTransfer(tx.Transfers, func(t solana.Transfer) bool { return t.Debits(owner) }); ok {
		fillParties(&rec, out)
	}
	return rec
}

func findTransfer(transfers []solana.Transfer, match func(solana.Transfer) bool) (solana.Transfer, bool) {
	for _, t := range transfers {
		if match(t) {
			return t, true
		}
	}
	return solana.Transfer{}, false
}

// fillParties prefers the owning wallet over a token account address.
func fillParties(rec *TransactionRecord, t solana.Transfer) {
	if from := partyOf(t.Source, t.SourceOwner); !from.IsZero() {
		rec.From = from.String()
	}
	if to := partyOf(t.Destination, t.DestinationOwner); !to.IsZero() {
		rec.To = to.String()
	}
	if t.Decimals == solana.UnknownDecimals {
		rec.Amount = NotAvailable
		return
	}
	rec.Amount = FormatUnits(t.Amount, t.Decimals)
}

func partyOf(account, owner solanago.PublicKey) solanago.PublicKey {
	if !owner.IsZero() {
		return owner
	}
	return account
}
