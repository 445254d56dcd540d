package arith

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

const billion = 1_000_000_000

var billionInt = uint256.NewInt(billion)

// Rounding selects how a fraction of a balance is rounded.
type Rounding int

const (
	RoundDown Rounding = iota
	// RoundNearest rounds to the nearest unit, exact halves going down.
	RoundNearest
)

// ParseRounding accepts "down" (default when empty) and "nearest".
func ParseRounding(input string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", "down", "floor":
		return RoundDown, nil
	case "nearest":
		return RoundNearest, nil
	default:
		return RoundDown, fmt.Errorf("unsupported rounding: %s", input)
	}
}

func (r Rounding) String() string {
	if r == RoundNearest {
		return "nearest"
	}
	return "down"
}

// Perbill is a fraction in [0, 1] stored as parts per billion. Constructors
// saturate at one and every operation truncates.
type Perbill uint32

const (
	PerbillZero Perbill = 0
	PerbillOne  Perbill = billion
)

func PerbillFromPercent(percent uint32) Perbill {
	if percent >= 100 {
		return PerbillOne
	}
	return Perbill(percent * 10_000_000)
}

// PerbillFromRational approximates p/q rounding down. A zero numerator
// yields zero; p >= q yields one.
func PerbillFromRational(p, q *uint256.Int) Perbill {
	if p.IsZero() {
		return PerbillZero
	}
	if !p.Lt(q) {
		return PerbillOne
	}
	parts, err := MulDiv(p, billionInt, q)
	if err != nil {
		return PerbillZero
	}
	return Perbill(parts.Uint64())
}

func (f Perbill) Parts() uint32 {
	return uint32(f)
}

func (f Perbill) IsZero() bool {
	return f == PerbillZero
}

// Mul multiplies two fractions, truncating.
func (f Perbill) Mul(g Perbill) Perbill {
	return Perbill(uint64(f) * uint64(g) / billion)
}

// Apply returns f * value using the given rounding. The result never exceeds
// value.
func (f Perbill) Apply(value *uint256.Int, rounding Rounding) *uint256.Int {
	if f >= PerbillOne {
		return value.Clone()
	}
	parts := uint256.NewInt(uint64(f))
	// value * parts / 1e9 fits: the quotient is below value.
	out, _ := MulDiv(value, parts, billionInt)
	if rounding == RoundNearest {
		rem := new(uint256.Int).MulMod(value, parts, billionInt)
		if rem.Uint64()*2 > billion {
			out.AddUint64(out, 1)
		}
	}
	return out
}

// String renders the fraction as a percentage with up to seven decimals.
func (f Perbill) String() string {
	whole := uint32(f) / 10_000_000
	frac := uint32(f) % 10_000_000
	if frac == 0 {
		return fmt.Sprintf("%d%%", whole)
	}
	return strings.TrimRight(fmt.Sprintf("%d.%07d", whole, frac), "0") + "%"
}
