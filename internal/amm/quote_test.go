package amm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SupremaLex/DummyDEX/internal/ledger"
)

func TestQuoteAt(t *testing.T) {
	ctx := context.Background()
	mem := ledger.NewMemory()
	require.NoError(t, mem.Init(ctx, alice, token1, units(1000), 6))
	require.NoError(t, mem.Init(ctx, alice, token2, units(1000), 6))

	_, err := QuoteAt(ctx, mem, poolAcc, token1, token2, units(100))
	require.ErrorIs(t, err, ErrNoLiquidity)

	require.NoError(t, mem.Transfer(ctx, token1, alice, poolAcc, units(100)))
	require.NoError(t, mem.Transfer(ctx, token2, alice, poolAcc, units(1000)))

	out, err := QuoteAt(ctx, mem, poolAcc, token1, token2, units(100))
	require.NoError(t, err)
	require.Equal(t, uint64(497_487_437), out.Uint64())

	_, err = QuoteAt(ctx, mem, poolAcc, token1, token1, units(100))
	require.ErrorIs(t, err, ErrWrongTokenID)

	_, err = QuoteAt(ctx, mem, poolAcc, token1, bob, units(100))
	require.ErrorIs(t, err, ledger.ErrTokenUninitialized)
}
