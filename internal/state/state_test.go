package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/SupremaLex/DummyDEX/internal/amm"
	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/liquidity"
)

var (
	tokenA  = common.HexToAddress("0x01")
	tokenB  = common.HexToAddress("0x02")
	poolAcc = common.HexToAddress("0x65")
	alice   = common.HexToAddress("0xa1")
)

func units(v uint64) *uint256.Int {
	return uint256.NewInt(v * 1_000_000)
}

func newSimulation(t *testing.T) (*ledger.Memory, *amm.Pool) {
	t.Helper()
	ctx := context.Background()
	l := ledger.NewMemory()
	require.NoError(t, l.Init(ctx, alice, tokenA, units(1000), 6))
	require.NoError(t, l.Init(ctx, alice, tokenB, units(1000), 6))
	require.NoError(t, l.Approve(ctx, tokenA, alice, poolAcc, units(1000)))
	require.NoError(t, l.Approve(ctx, tokenB, alice, poolAcc, units(1000)))
	p := amm.NewPool(amm.Config{Mode: liquidity.ModeShared}, l, nil, nil)
	return l, p
}

func TestFileStoreMissingFile(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "absent.json")}
	_, ok, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected no snapshot")
	}

	var empty *FileStore
	if err := empty.Save(context.Background(), Snapshot{}); err != nil {
		t.Fatalf("nil store save: %v", err)
	}
}

func TestFileStoreResumesSimulation(t *testing.T) {
	ctx := context.Background()
	l, p := newSimulation(t)
	require.NoError(t, p.Init(ctx, alice, poolAcc, tokenA, units(100), tokenB, units(1000)))
	out, err := p.BuyToken(ctx, alice, tokenA, units(100))
	require.NoError(t, err)
	require.Equal(t, uint64(497_487_437), out.Uint64())

	store := &FileStore{Path: filepath.Join(t.TempDir(), "nested", "dex.json")}
	require.NoError(t, store.Save(ctx, Capture(l, p)))
	if _, err := os.Stat(store.Path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	snap, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotEmpty(t, snap.UpdatedAt)

	l2 := ledger.NewMemory()
	p2 := amm.NewPool(amm.Config{Mode: liquidity.ModeShared}, l2, nil, nil)
	require.NoError(t, snap.Apply(l2, p2))

	ra, rb, err := p2.Reserves(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(200_000_000), ra.Uint64())
	require.Equal(t, uint64(502_512_563), rb.Uint64())
	require.Equal(t, uint64(1_100_000_000), p2.LiquidityOf(alice).Uint64())
	require.Equal(t, p.State(), p2.State())

	back, err := p2.BuyToken(ctx, alice, tokenB, units(235))
	require.NoError(t, err)
	require.Equal(t, uint64(63_292_123), back.Uint64())
}

func TestApplyRejectsModeMismatch(t *testing.T) {
	ctx := context.Background()
	l, p := newSimulation(t)
	require.NoError(t, p.Init(ctx, alice, poolAcc, tokenA, units(100), tokenB, units(200)))
	snap := Capture(l, p)

	l2 := ledger.NewMemory()
	p2 := amm.NewPool(amm.Config{Mode: liquidity.ModePerAsset}, l2, nil, nil)
	require.ErrorIs(t, snap.Apply(l2, p2), amm.ErrModeMismatch)
}
