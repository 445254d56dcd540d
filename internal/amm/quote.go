package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/pricing"
)

// QuoteAt prices a swap against the balances pool holds on r. It does not
// need a Pool and works with any balance source, including a live chain.
func QuoteAt(ctx context.Context, r ledger.BalanceReader, pool, assetIn, assetOut common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	if assetIn == assetOut {
		return nil, fmt.Errorf("%w: identical assets", ErrWrongTokenID)
	}
	if err := checkAmount(amountIn); err != nil {
		return nil, err
	}
	reserveIn, err := r.BalanceOf(ctx, assetIn, pool)
	if err != nil {
		return nil, fmt.Errorf("read reserve %s: %w", assetIn.Hex(), err)
	}
	reserveOut, err := r.BalanceOf(ctx, assetOut, pool)
	if err != nil {
		return nil, fmt.Errorf("read reserve %s: %w", assetOut.Hex(), err)
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrNoLiquidity
	}
	return pricing.Price(amountIn, reserveIn, reserveOut)
}

// checkAmount rejects missing and zero input amounts before any pricing.
func checkAmount(v *uint256.Int) error {
	if v == nil || v.IsZero() {
		return fmt.Errorf("%w: amount must be positive", ledger.ErrZeroTransfer)
	}
	return nil
}
