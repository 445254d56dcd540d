package aggregate

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SupremaLex/DummyDEX/internal/units"
)

const ratioScale = 18

var yearSeconds = decimal.NewFromInt(int64(365 * 24 * time.Hour / time.Second))

func computeFeeRates(feeA, feeB, reserveA, reserveB *big.Int) (*string, *string) {
	var rateA, rateB *string
	if rate := units.Ratio(feeA, reserveA, ratioScale); rate != "" {
		rateA = &rate
	}
	if rate := units.Ratio(feeB, reserveB, ratioScale); rate != "" {
		rateB = &rate
	}
	return rateA, rateB
}

// computeAPR annualizes the fee yield of a window. A constant-product pool
// holds equal value on both sides, so the yield on the whole pool is the mean
// of the per-side fee rates.
func computeAPR(rateA, rateB *string, windowSeconds uint64) *string {
	if windowSeconds == 0 || (rateA == nil && rateB == nil) {
		return nil
	}

	sum := decimal.Zero
	for _, rate := range []*string{rateA, rateB} {
		if rate == nil {
			continue
		}
		v, err := decimal.NewFromString(*rate)
		if err != nil {
			return nil
		}
		sum = sum.Add(v)
	}

	apr := sum.Div(decimal.NewFromInt(2)).
		Mul(yearSeconds).
		DivRound(decimal.NewFromInt(int64(windowSeconds)), ratioScale)
	val := apr.StringFixed(ratioScale)
	return &val
}
