// Package units converts between human-readable token amounts and integer
// base units.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/SupremaLex/DummyDEX/internal/arith"
)

// DefaultDecimals is used for tokens whose precision is not configured.
const DefaultDecimals = 6

// ParseAmount reads a decimal string such as "12.5" as base units of a token
// with the given precision. Amounts finer than one base unit are rejected.
func ParseAmount(input string, decimals uint8) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", input, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("parse amount %q: negative", input)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("parse amount %q: more than %d decimals", input, decimals)
	}
	v, err := arith.FromBig(scaled.BigInt())
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", input, err)
	}
	return v, nil
}

// FormatAmount renders base units with exactly decimals fractional digits.
func FormatAmount(v *uint256.Int, decimals uint8) string {
	if v == nil {
		return FormatBig(nil, decimals)
	}
	return FormatBig(v.ToBig(), decimals)
}

// FormatBig is FormatAmount for signed values.
func FormatBig(v *big.Int, decimals uint8) string {
	if v == nil {
		v = new(big.Int)
	}
	if decimals == 0 {
		return v.String()
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).StringFixed(int32(decimals))
}

// Ratio renders num/den with the given number of fractional digits, or ""
// when either side is zero.
func Ratio(num, den *big.Int, places int32) string {
	if num == nil || den == nil || num.Sign() == 0 || den.Sign() == 0 {
		return ""
	}
	return decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(den, 0), places).StringFixed(places)
}
