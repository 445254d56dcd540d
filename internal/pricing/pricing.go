// Package pricing implements the constant-product swap formula with a 1%
// trading fee, and the split used by single-sided deposits.
package pricing

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/SupremaLex/DummyDEX/internal/arith"
)

// The input amount is scaled by FeeNumerator/FeeDenominator before pricing.
// The remainder stays in the pool.
const (
	FeeNumerator   = 99
	FeeDenominator = 100
)

var (
	feeNum = uint256.NewInt(FeeNumerator)
	feeDen = uint256.NewInt(FeeDenominator)
)

// AfterFee returns floor(amountIn * 99 / 100).
func AfterFee(amountIn *uint256.Int) (*uint256.Int, error) {
	return arith.MulDiv(amountIn, feeNum, feeDen)
}

// Fee returns the part of amountIn retained by the pool.
func Fee(amountIn *uint256.Int) (*uint256.Int, error) {
	net, err := AfterFee(amountIn)
	if err != nil {
		return nil, err
	}
	return arith.Sub(amountIn, net)
}

// Price returns how much of the output asset amountIn buys:
//
//	out = floor(in' * reserveOut / (reserveIn + in')), in' = floor(in * 99 / 100)
func Price(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	net, err := AfterFee(amountIn)
	if err != nil {
		return nil, err
	}
	denominator, err := arith.Add(reserveIn, net)
	if err != nil {
		return nil, err
	}
	out, err := arith.MulDiv(net, reserveOut, denominator)
	if err != nil {
		return nil, fmt.Errorf("price %s against %s/%s: %w",
			arith.String(amountIn), arith.String(reserveIn), arith.String(reserveOut), err)
	}
	return out, nil
}

// SwapPortion returns the part s of amount that a single-sided deposit must
// swap so that the remainder and the bought amount are in post-swap pool
// ratio. It is the positive root of
//
//	n*s^2 + (n+d)*R*s - d*R*A = 0
//
// with n/d the fee factor, R the input reserve and A the deposited amount.
func SwapPortion(amount, reserveIn *uint256.Int) (*uint256.Int, error) {
	if reserveIn.IsZero() {
		return nil, arith.ErrDivisionByZero
	}
	sum := uint256.NewInt(FeeNumerator + FeeDenominator)
	sumR, err := arith.Mul(sum, reserveIn)
	if err != nil {
		return nil, err
	}
	squared, err := arith.Mul(sumR, sumR)
	if err != nil {
		return nil, err
	}
	linear, err := arith.Mul(uint256.NewInt(4*FeeNumerator*FeeDenominator), reserveIn)
	if err != nil {
		return nil, err
	}
	linear, err = arith.Mul(linear, amount)
	if err != nil {
		return nil, err
	}
	disc, err := arith.Add(squared, linear)
	if err != nil {
		return nil, err
	}
	root := arith.Sqrt(disc)
	// root >= sumR because linear >= 0.
	num, err := arith.Sub(root, sumR)
	if err != nil {
		return nil, err
	}
	return arith.Div(num, uint256.NewInt(2*FeeNumerator))
}

// Split describes a single-sided deposit after its synthetic swap.
type Split struct {
	// Swapped is the part of the deposit sold to the pool.
	Swapped *uint256.Int
	// Bought is what Swapped buys of the other asset.
	Bought *uint256.Int
	// DepositIn and DepositOut are the amounts added as liquidity, in the
	// post-swap pool ratio.
	DepositIn  *uint256.Int
	DepositOut *uint256.Int
	// RefundIn and RefundOut are the rounding leftovers returned to the
	// depositor.
	RefundIn  *uint256.Int
	RefundOut *uint256.Int
}

// Minted is the share amount the deposit is worth.
func (s Split) Minted() (*uint256.Int, error) {
	return arith.Add(s.DepositIn, s.DepositOut)
}

// SplitDeposit plans a single-sided deposit of amount into a pool holding
// reserveIn of the deposited asset and reserveOut of the other one. It fails
// with ErrInsufficientInput when the swap leg rounds to nothing.
func SplitDeposit(amount, reserveIn, reserveOut *uint256.Int) (Split, error) {
	swapped, err := SwapPortion(amount, reserveIn)
	if err != nil {
		return Split{}, err
	}
	if swapped.IsZero() {
		return Split{}, ErrInsufficientInput
	}
	bought, err := Price(swapped, reserveIn, reserveOut)
	if err != nil {
		return Split{}, err
	}
	if bought.IsZero() {
		return Split{}, ErrInsufficientInput
	}
	postIn, err := arith.Add(reserveIn, swapped)
	if err != nil {
		return Split{}, err
	}
	postOut, err := arith.Sub(reserveOut, bought)
	if err != nil {
		return Split{}, err
	}
	if postOut.IsZero() {
		return Split{}, ErrInsufficientInput
	}
	remainder, err := arith.Sub(amount, swapped)
	if err != nil {
		return Split{}, err
	}

	depositIn, depositOut := remainder, bought
	matched, err := arith.MulDiv(remainder, postOut, postIn)
	if err != nil {
		return Split{}, err
	}
	if !matched.Gt(bought) {
		depositOut = matched
	} else {
		depositIn, err = arith.MulDiv(bought, postIn, postOut)
		if err != nil {
			return Split{}, err
		}
	}

	refundIn, err := arith.Sub(remainder, depositIn)
	if err != nil {
		return Split{}, err
	}
	refundOut, err := arith.Sub(bought, depositOut)
	if err != nil {
		return Split{}, err
	}
	return Split{
		Swapped:    swapped,
		Bought:     bought,
		DepositIn:  depositIn.Clone(),
		DepositOut: depositOut.Clone(),
		RefundIn:   refundIn,
		RefundOut:  refundOut,
	}, nil
}
