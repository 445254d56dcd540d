package amm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/liquidity"
	"github.com/SupremaLex/DummyDEX/internal/model"
)

const mil = 1_000_000

var (
	token1  = common.HexToAddress("0x01")
	token2  = common.HexToAddress("0x02")
	poolAcc = common.HexToAddress("0x65")
	alice   = common.HexToAddress("0xa1")
	bob     = common.HexToAddress("0xb0")
	charlie = common.HexToAddress("0xc3")
	marry   = common.HexToAddress("0xd5")
	john    = common.HexToAddress("0xe6")
)

func units(v uint64) *uint256.Int {
	return uint256.NewInt(v * mil)
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.PoolEvent
	err    error
}

func (s *recordingSink) PutEvents(ctx context.Context, events []model.PoolEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

type fixture struct {
	t      *testing.T
	ctx    context.Context
	ledger *ledger.Memory
	pool   *Pool
	sink   *recordingSink
}

func newFixture(t *testing.T, supply uint64, cfg Config) *fixture {
	t.Helper()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	}
	f := &fixture{
		t:      t,
		ctx:    context.Background(),
		ledger: ledger.NewMemory(),
		sink:   &recordingSink{},
	}
	f.pool = NewPool(cfg, f.ledger, f.sink, nil)
	if supply > 0 {
		require.NoError(t, f.ledger.Init(f.ctx, alice, token1, units(supply), 6))
		require.NoError(t, f.ledger.Init(f.ctx, alice, token2, units(supply), 6))
	}
	return f
}

func (f *fixture) approve(who common.Address, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Approve(f.ctx, token1, who, poolAcc, units(amount)))
	require.NoError(f.t, f.ledger.Approve(f.ctx, token2, who, poolAcc, units(amount)))
}

func (f *fixture) transfer(from, to common.Address, amount uint64) {
	f.t.Helper()
	require.NoError(f.t, f.ledger.Transfer(f.ctx, token1, from, to, units(amount)))
	require.NoError(f.t, f.ledger.Transfer(f.ctx, token2, from, to, units(amount)))
}

func (f *fixture) initDex(amountA, amountB uint64) {
	f.t.Helper()
	require.NoError(f.t, f.pool.Init(f.ctx, alice, poolAcc, token1, units(amountA), token2, units(amountB)))
}

func (f *fixture) balance(asset, who common.Address) uint64 {
	f.t.Helper()
	v, err := f.ledger.BalanceOf(f.ctx, asset, who)
	require.NoError(f.t, err)
	return v.Uint64()
}

func (f *fixture) liquidity(who common.Address) uint64 {
	return f.pool.LiquidityOf(who).Uint64()
}

func (f *fixture) buy(who, asset common.Address, amount uint64) uint64 {
	f.t.Helper()
	out, err := f.pool.BuyToken(f.ctx, who, asset, units(amount))
	require.NoError(f.t, err)
	return out.Uint64()
}

func (f *fixture) deposit(who, asset common.Address, amount uint64) {
	f.t.Helper()
	_, err := f.pool.Deposit(f.ctx, who, asset, units(amount))
	require.NoError(f.t, err)
}

func (f *fixture) withdraw(who common.Address, percent uint32) Withdrawal {
	f.t.Helper()
	w, err := f.pool.Withdraw(f.ctx, who, percent)
	require.NoError(f.t, err)
	return w
}

func (f *fixture) requireReserves(a, b uint64) {
	f.t.Helper()
	require.Equal(f.t, a, f.balance(token1, poolAcc), "reserve a")
	require.Equal(f.t, b, f.balance(token2, poolAcc), "reserve b")
}

// requireConsistent checks that the share book agrees with itself and with
// the per-provider view.
func (f *fixture) requireConsistent() {
	f.t.Helper()
	f.pool.mu.Lock()
	defer f.pool.mu.Unlock()
	require.NoError(f.t, f.pool.shares.Check())
	sum := new(uint256.Int)
	for _, p := range f.pool.shares.Providers() {
		sum.Add(sum, f.pool.shares.LiquidityOf(p))
	}
	require.Equal(f.t, arith.String(f.pool.shares.TotalShares()), arith.String(sum))
}

// faultyLedger fails the n-th transfer it sees, inside or outside a
// transaction of the embedded memory ledger.
type faultyLedger struct {
	*ledger.Memory
	failAt int
	calls  int
}

var errInjected = errors.New("injected transfer failure")

func (l *faultyLedger) hit() error {
	l.calls++
	if l.calls == l.failAt {
		return errInjected
	}
	return nil
}

func (l *faultyLedger) TransferFrom(ctx context.Context, asset, owner, to common.Address, amount *uint256.Int) error {
	if err := l.hit(); err != nil {
		return err
	}
	return l.Memory.TransferFrom(ctx, asset, owner, to, amount)
}

func (l *faultyLedger) TransferFromTo(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	if err := l.hit(); err != nil {
		return err
	}
	return l.Memory.TransferFromTo(ctx, asset, from, to, amount)
}

func (l *faultyLedger) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := l.Memory.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, l: l}, nil
}

type faultyTx struct {
	ledger.Tx
	l *faultyLedger
}

func (tx *faultyTx) TransferFrom(ctx context.Context, asset, owner, to common.Address, amount *uint256.Int) error {
	if err := tx.l.hit(); err != nil {
		return err
	}
	return tx.Tx.TransferFrom(ctx, asset, owner, to, amount)
}

func (tx *faultyTx) TransferFromTo(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	if err := tx.l.hit(); err != nil {
		return err
	}
	return tx.Tx.TransferFromTo(ctx, asset, from, to, amount)
}

// plainLedger hides the transaction support of the memory ledger.
type plainLedger struct {
	inner *faultyLedger
}

func (l plainLedger) BalanceOf(ctx context.Context, asset, account common.Address) (*uint256.Int, error) {
	return l.inner.BalanceOf(ctx, asset, account)
}

func (l plainLedger) TransferFrom(ctx context.Context, asset, owner, to common.Address, amount *uint256.Int) error {
	return l.inner.TransferFrom(ctx, asset, owner, to, amount)
}

func (l plainLedger) TransferFromTo(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	return l.inner.TransferFromTo(ctx, asset, from, to, amount)
}

var sharedDown = Config{Mode: liquidity.ModeShared, Rounding: arith.RoundDown}
