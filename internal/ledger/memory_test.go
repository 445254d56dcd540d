package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	token0 = common.HexToAddress("0x01")
	token1 = common.HexToAddress("0x02")
	alice  = common.HexToAddress("0xa1")
	bob    = common.HexToAddress("0xb0")
	carol  = common.HexToAddress("0xc0")
)

func amount(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func mustInit(t *testing.T, m *Memory, owner, asset common.Address, supply uint64) {
	t.Helper()
	if err := m.Init(context.Background(), owner, asset, amount(supply), 6); err != nil {
		t.Fatalf("init %s: %v", asset.Hex(), err)
	}
}

func balance(t *testing.T, m *Memory, asset, account common.Address) uint64 {
	t.Helper()
	v, err := m.BalanceOf(context.Background(), asset, account)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return v.Uint64()
}

func TestInit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)
	mustInit(t, m, bob, token1, 999)

	if got := balance(t, m, token0, alice); got != 1000 {
		t.Fatalf("alice balance: %d", got)
	}
	if got := balance(t, m, token1, bob); got != 999 {
		t.Fatalf("bob balance: %d", got)
	}
	supply, err := m.TotalSupply(ctx, token1)
	if err != nil || supply.Uint64() != 999 {
		t.Fatalf("supply: %v %v", supply, err)
	}
	if err := m.Init(ctx, alice, token0, amount(1000), 6); !errors.Is(err, ErrAlreadyInitialized) {
		t.Fatalf("expected already initialized, got %v", err)
	}
	if err := m.Init(ctx, alice, carol, amount(0), 6); !errors.Is(err, ErrWrongInitialization) {
		t.Fatalf("expected wrong initialization, got %v", err)
	}
	if _, err := m.BalanceOf(ctx, carol, alice); !errors.Is(err, ErrTokenUninitialized) {
		t.Fatalf("expected uninitialized token, got %v", err)
	}
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)

	if err := m.Transfer(ctx, token0, alice, bob, amount(100)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if balance(t, m, token0, alice) != 900 || balance(t, m, token0, bob) != 100 {
		t.Fatalf("balances after transfer: %d/%d", balance(t, m, token0, alice), balance(t, m, token0, bob))
	}

	cases := []struct {
		name string
		to   common.Address
		amt  uint64
		want error
	}{
		{name: "self", to: alice, amt: 100, want: ErrSelfTransfer},
		{name: "funds", to: bob, amt: 901, want: ErrInsufficientFunds},
		{name: "zero", to: bob, amt: 0, want: ErrZeroTransfer},
	}
	for _, tc := range cases {
		if err := m.Transfer(ctx, token0, alice, tc.to, amount(tc.amt)); !errors.Is(err, tc.want) {
			t.Fatalf("%s: got %v want %v", tc.name, err, tc.want)
		}
	}
	if balance(t, m, token0, alice) != 900 {
		t.Fatalf("failed transfers changed balance")
	}
}

func TestTransferFrom(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)

	if err := m.Approve(ctx, token0, alice, bob, amount(400)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := m.TransferFrom(ctx, token0, alice, bob, amount(500)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected insufficient allowance, got %v", err)
	}
	if err := m.TransferFrom(ctx, token0, alice, bob, amount(0)); !errors.Is(err, ErrZeroTransfer) {
		t.Fatalf("expected zero transfer, got %v", err)
	}
	if err := m.TransferFrom(ctx, token0, alice, bob, amount(200)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	allowance, err := m.Allowance(ctx, token0, alice, bob)
	if err != nil || allowance.Uint64() != 200 {
		t.Fatalf("allowance: %v %v", allowance, err)
	}
	if balance(t, m, token0, alice) != 800 || balance(t, m, token0, bob) != 200 {
		t.Fatalf("balances after transfer from")
	}

	// funds are checked before the allowance
	if err := m.Transfer(ctx, token0, alice, carol, amount(800)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := m.TransferFrom(ctx, token0, alice, bob, amount(100)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestApproveAccumulates(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)
	for i := 0; i < 3; i++ {
		if err := m.Approve(ctx, token0, alice, bob, amount(10)); err != nil {
			t.Fatalf("approve: %v", err)
		}
	}
	allowance, _ := m.Allowance(ctx, token0, alice, bob)
	if allowance.Uint64() != 30 {
		t.Fatalf("allowance: %d", allowance.Uint64())
	}
	top := new(uint256.Int).SetAllOne()
	if err := m.Approve(ctx, token0, alice, bob, top); !errors.Is(err, ErrOverflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestTxRollback(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)
	if err := m.Approve(ctx, token0, alice, bob, amount(300)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	before := m.Export()

	tx, err := m.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.TransferFrom(ctx, token0, alice, bob, amount(250)); err != nil {
		t.Fatalf("transfer from: %v", err)
	}
	if err := tx.TransferFromTo(ctx, token0, bob, carol, amount(50)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	got, err := tx.BalanceOf(ctx, token0, carol)
	if err != nil || got.Uint64() != 50 {
		t.Fatalf("balance inside tx: %v %v", got, err)
	}
	tx.Rollback()

	if !reflect.DeepEqual(before, m.Export()) {
		t.Fatalf("rollback did not restore the ledger: %+v", m.Export())
	}
	if err := tx.TransferFromTo(ctx, token0, alice, bob, amount(1)); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected finished tx, got %v", err)
	}
	tx.Rollback()

	tx, err = m.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.TransferFromTo(ctx, token0, alice, bob, amount(1)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	tx.Rollback()
	if balance(t, m, token0, bob) != 1 {
		t.Fatalf("rollback after commit reverted state")
	}
}

func TestTxKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)
	mustInit(t, m, carol, token1, 1000)

	tx, err := m.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.TransferFromTo(ctx, token0, alice, bob, amount(400)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.Transfer(ctx, token1, carol, bob, amount(70))
	}()
	select {
	case err := <-done:
		t.Fatalf("write finished while a transaction was open: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	tx.Rollback()
	if err := <-done; err != nil {
		t.Fatalf("concurrent transfer: %v", err)
	}
	if balance(t, m, token0, bob) != 0 || balance(t, m, token0, alice) != 1000 {
		t.Fatalf("rolled back transfer survived")
	}
	if balance(t, m, token1, bob) != 70 || balance(t, m, token1, carol) != 930 {
		t.Fatalf("concurrent transfer was lost")
	}
}

func TestBeginHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemory().Begin(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mustInit(t, m, alice, token0, 1000)
	mustInit(t, m, alice, token1, 2000)
	if err := m.Transfer(ctx, token1, alice, bob, amount(700)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := m.Approve(ctx, token0, alice, carol, amount(33)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	raw, err := json.Marshal(m.Export())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	restored := NewMemory()
	if err := restored.Import(st); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !reflect.DeepEqual(m.Export(), restored.Export()) {
		t.Fatalf("state mismatch after round trip")
	}
	if balance(t, restored, token1, bob) != 700 {
		t.Fatalf("restored balance: %d", balance(t, restored, token1, bob))
	}
	allowance, _ := restored.Allowance(ctx, token0, alice, carol)
	if allowance.Uint64() != 33 {
		t.Fatalf("restored allowance: %d", allowance.Uint64())
	}

	st.Tokens[0].Supply = "0"
	if err := NewMemory().Import(st); !errors.Is(err, ErrWrongInitialization) {
		t.Fatalf("expected wrong initialization, got %v", err)
	}
}
