package trade

import (
	"github.com/shopspring/decimal"
)

// DefaultFeeRate is the marketplace fee, 1% of the trade amount.
var DefaultFeeRate = decimal.RequireFromString("0.01")

// CalculateFee returns amount * rate rounded half up to whole satoshis. The
// arithmetic is exact decimal, so 1250 sat at 1% is always 13 sat.
func CalculateFee(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
}
