package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Well-known Solana program IDs
var (
	// SystemProgramID is the native SOL transfer program
	SystemProgramID = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")

	// TokenProgramID is the SPL Token program
	TokenProgramID = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Token2022ProgramID is the Token Extensions program (Token-2022)
	Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

	// BPFLoaderUpgradeableID owns upgradeable programs; their code lives in a separate program-data account.
	BPFLoaderUpgradeableID = solana.MustPublicKeyFromBase58("BPFLoaderUpgradeab1e11111111111111111111111")
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// LamportDecimals is the number of decimal places between lamports and SOL.
const LamportDecimals = 9

// UnknownDecimals marks a token amount whose mint precision is not known.
const UnknownDecimals = -1

// Token Program instruction types
const (
	TokenProgramTransferInstruction        = uint8(3)
	TokenProgramTransferCheckedInstruction = uint8(12)
)

// Upgradeable loader account layout
const (
	upgradeableProgramTag     = uint32(2)
	upgradeableProgramDataTag = uint32(3)
	// tag (u32) + slot (u64) + option tag (u8) + authority (32 bytes)
	programDataHeaderSize = 4 + 8 + 1 + 32
)

// signatureToDomain converts an RPC TransactionSignature to our domain Transaction.
// Note: This only includes metadata from the signature list, not full transaction details.
func signatureToDomain(sig *rpc.TransactionSignature) *Transaction {
	txn := &Transaction{
		Signature: sig.Signature,
		Slot:      sig.Slot,
	}

	if sig.BlockTime != nil {
		txn.BlockTime = int64(*sig.BlockTime)
	}

	if sig.Err != nil {
		errMsg := fmt.Sprintf("transaction failed: %v", sig.Err)
		txn.Err = &errMsg
	}

	return txn
}

// parseTransactionFromResult parses a full GetTransactionResult and extracts its transfers.
func parseTransactionFromResult(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult) (*Transaction, error) {
	txn := signatureToDomain(sig)

	// Handle nil result (transaction not available)
	if result == nil || result.Transaction == nil {
		return txn, nil
	}

	if txn.BlockTime == 0 && result.BlockTime != nil {
		txn.BlockTime = int64(*result.BlockTime)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}

	txn.Transfers = ExtractTransfers(tx)
	resolveTokenAccounts(txn.Transfers, tx.Message.AccountKeys, result.Meta)
	txn.Detailed = true
	return txn, nil
}

// ExtractTransfers decodes every native SOL and SPL token transfer instruction in tx.
// Instructions that cannot be decoded are skipped.
func ExtractTransfers(tx *solana.Transaction) []Transfer {
	if tx == nil {
		return nil
	}

	accountKeys := tx.Message.AccountKeys
	var transfers []Transfer
	for _, instruction := range tx.Message.Instructions {
		if int(instruction.ProgramIDIndex) >= len(accountKeys) {
			continue
		}
		programID := accountKeys[instruction.ProgramIDIndex]

		switch {
		case programID.Equals(SystemProgramID):
			if t, err := parseSystemTransfer(instruction, accountKeys); err == nil {
				transfers = append(transfers, t)
			}
		case programID.Equals(TokenProgramID) || programID.Equals(Token2022ProgramID):
			if t, err := parseTokenTransfer(instruction, accountKeys); err == nil {
				transfers = append(transfers, t)
			}
		}
	}
	return transfers
}

// parseSystemTransfer decodes a System Program Transfer instruction.
func parseSystemTransfer(instruction solana.CompiledInstruction, accountKeys []solana.PublicKey) (Transfer, error) {
	// System Transfer instruction format:
	// [0..4]  = instruction type (u32, should be 2 for Transfer)
	// [4..12] = lamports (u64)
	if len(instruction.Data) < 12 {
		return Transfer{}, fmt.Errorf("instruction data too short: %d bytes", len(instruction.Data))
	}

	instructionType := binary.LittleEndian.Uint32(instruction.Data[0:4])
	if instructionType != SystemProgramTransferInstruction {
		return Transfer{}, fmt.Errorf("not a transfer instruction: type %d", instructionType)
	}

	// System Transfer accounts: [from, to]
	from, to, err := accountPair(instruction, accountKeys, 0, 1)
	if err != nil {
		return Transfer{}, err
	}

	return Transfer{
		Source:      from,
		Destination: to,
		Amount:      binary.LittleEndian.Uint64(instruction.Data[4:12]),
		Decimals:    LamportDecimals,
	}, nil
}

// parseTokenTransfer decodes an SPL Token Transfer or TransferChecked instruction.
// Source and destination are token accounts; resolveTokenAccounts maps them to owners.
func parseTokenTransfer(instruction solana.CompiledInstruction, accountKeys []solana.PublicKey) (Transfer, error) {
	if len(instruction.Data) == 0 {
		return Transfer{}, fmt.Errorf("empty instruction data")
	}

	switch instruction.Data[0] {
	case TokenProgramTransferInstruction:
		// [0] = type, [1..9] = amount
		// accounts: [source, destination, authority]
		if len(instruction.Data) < 9 {
			return Transfer{}, fmt.Errorf("transfer instruction data too short")
		}
		from, to, err := accountPair(instruction, accountKeys, 0, 1)
		if err != nil {
			return Transfer{}, err
		}
		return Transfer{
			Source:      from,
			Destination: to,
			Amount:      binary.LittleEndian.Uint64(instruction.Data[1:9]),
			Decimals:    UnknownDecimals,
		}, nil

	case TokenProgramTransferCheckedInstruction:
		// [0] = type, [1..9] = amount, [9] = decimals
		// accounts: [source, mint, destination, authority]
		if len(instruction.Data) < 10 {
			return Transfer{}, fmt.Errorf("transferChecked instruction data too short")
		}
		from, to, err := accountPair(instruction, accountKeys, 0, 2)
		if err != nil {
			return Transfer{}, err
		}
		mintIdx := instruction.Accounts[1]
		if int(mintIdx) >= len(accountKeys) {
			return Transfer{}, fmt.Errorf("mint account index out of bounds")
		}
		mint := accountKeys[mintIdx]
		return Transfer{
			Source:      from,
			Destination: to,
			Amount:      binary.LittleEndian.Uint64(instruction.Data[1:9]),
			Decimals:    int(instruction.Data[9]),
			TokenMint:   &mint,
		}, nil

	default:
		return Transfer{}, fmt.Errorf("unknown token instruction type: %d", instruction.Data[0])
	}
}

// resolveTokenAccounts fills token account owners from meta's token balances.
// Plain SPL Transfers also take their mint and decimals from there.
func resolveTokenAccounts(transfers []Transfer, accountKeys []solana.PublicKey, meta *rpc.TransactionMeta) {
	if meta == nil || len(transfers) == 0 {
		return
	}

	// Balance indexes cover the static keys followed by lookup-table addresses.
	keys := make([]solana.PublicKey, 0, len(accountKeys)+len(meta.LoadedAddresses.Writable)+len(meta.LoadedAddresses.ReadOnly))
	keys = append(keys, accountKeys...)
	keys = append(keys, meta.LoadedAddresses.Writable...)
	keys = append(keys, meta.LoadedAddresses.ReadOnly...)

	balances := make(map[solana.PublicKey]rpc.TokenBalance)
	for _, list := range [][]rpc.TokenBalance{meta.PreTokenBalances, meta.PostTokenBalances} {
		for _, b := range list {
			if int(b.AccountIndex) < len(keys) {
				balances[keys[b.AccountIndex]] = b
			}
		}
	}
	if len(balances) == 0 {
		return
	}

	for i := range transfers {
		t := &transfers[i]
		src, srcOK := balances[t.Source]
		dst, dstOK := balances[t.Destination]
		if srcOK && src.Owner != nil {
			t.SourceOwner = *src.Owner
		}
		if dstOK && dst.Owner != nil {
			t.DestinationOwner = *dst.Owner
		}
		if t.Decimals != UnknownDecimals {
			continue
		}
		b := dst
		if !dstOK {
			if !srcOK {
				continue
			}
			b = src
		}
		mint := b.Mint
		t.TokenMint = &mint
		if b.UiTokenAmount != nil {
			t.Decimals = int(b.UiTokenAmount.Decimals)
		}
	}
}

// accountPair resolves two instruction account positions into public keys.
func accountPair(instruction solana.CompiledInstruction, accountKeys []solana.PublicKey, a, b int) (solana.PublicKey, solana.PublicKey, error) {
	if len(instruction.Accounts) <= a || len(instruction.Accounts) <= b {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("instruction missing accounts")
	}
	ai, bi := int(instruction.Accounts[a]), int(instruction.Accounts[b])
	if ai >= len(accountKeys) || bi >= len(accountKeys) {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("account index out of bounds")
	}
	return accountKeys[ai], accountKeys[bi], nil
}

// programDataAddress returns the program-data account referenced by an upgradeable program account.
func programDataAddress(programAccount []byte) (solana.PublicKey, bool) {
	if len(programAccount) < 4+32 {
		return solana.PublicKey{}, false
	}
	if binary.LittleEndian.Uint32(programAccount[0:4]) != upgradeableProgramTag {
		return solana.PublicKey{}, false
	}
	return solana.PublicKeyFromBytes(programAccount[4 : 4+32]), true
}

// programDataCode strips the program-data header and returns the executable bytes.
func programDataCode(programData []byte) ([]byte, bool) {
	if len(programData) < programDataHeaderSize {
		return nil, false
	}
	if binary.LittleEndian.Uint32(programData[0:4]) != upgradeableProgramDataTag {
		return nil, false
	}
	return programData[programDataHeaderSize:], true
}
