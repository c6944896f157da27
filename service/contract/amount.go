package contract

import (
	"math/big"

	"github.com/brojonat/ledgerlens/service/solana"
	"github.com/shopspring/decimal"
)

// FormatAmount converts lamports to a SOL string with two decimal places.
func FormatAmount(lamports uint64) string {
	return FormatUnits(lamports, solana.LamportDecimals)
}

// FormatUnits converts an integer base-unit amount with the given number of
// decimals to a string fixed to two decimal places.
func FormatUnits(amount uint64, decimals int) string {
	return UnitsToDecimal(amount, decimals).StringFixed(2)
}

// UnitsToDecimal converts an integer base-unit amount to its display value.
func UnitsToDecimal(amount uint64, decimals int) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
}
