package ledger

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type token struct {
	supply     *uint256.Int
	decimals   uint8
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

func (t *token) balance(account common.Address) *uint256.Int {
	if v, ok := t.balances[account]; ok {
		return v
	}
	return new(uint256.Int)
}

func (t *token) allowance(owner, spender common.Address) *uint256.Int {
	if v, ok := t.allowances[allowanceKey{owner: owner, spender: spender}]; ok {
		return v
	}
	return new(uint256.Int)
}

// Memory is a multi-token ledger kept in process memory. A token exists once
// it has been initialized with a positive supply. It is safe for concurrent
// use. An open transaction holds the ledger exclusively: other callers,
// including other pools sharing the ledger, wait until it commits or rolls
// back.
type Memory struct {
	mu     sync.RWMutex
	tokens map[common.Address]*token
}

func NewMemory() *Memory {
	return &Memory{tokens: make(map[common.Address]*token)}
}

// Init mints the whole supply of asset to owner.
func (m *Memory) Init(ctx context.Context, owner, asset common.Address, supply *uint256.Int, decimals uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[asset]; ok {
		return ErrAlreadyInitialized
	}
	if supply == nil || supply.IsZero() {
		return ErrWrongInitialization
	}
	m.tokens[asset] = &token{
		supply:     supply.Clone(),
		decimals:   decimals,
		balances:   map[common.Address]*uint256.Int{owner: supply.Clone()},
		allowances: make(map[allowanceKey]*uint256.Int),
	}
	return nil
}

func (m *Memory) token(asset common.Address) (*token, error) {
	t, ok := m.tokens[asset]
	if !ok {
		return nil, ErrTokenUninitialized
	}
	return t, nil
}

func (m *Memory) TotalSupply(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.token(asset)
	if err != nil {
		return nil, err
	}
	return t.supply.Clone(), nil
}

func (m *Memory) Decimals(ctx context.Context, asset common.Address) (uint8, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.token(asset)
	if err != nil {
		return 0, err
	}
	return t.decimals, nil
}

func (m *Memory) BalanceOf(ctx context.Context, asset, account common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.token(asset)
	if err != nil {
		return nil, err
	}
	return t.balance(account).Clone(), nil
}

func (m *Memory) Allowance(ctx context.Context, asset, owner, spender common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, err := m.token(asset)
	if err != nil {
		return nil, err
	}
	return t.allowance(owner, spender).Clone(), nil
}

// Transfer moves the sender's own funds.
func (m *Memory) Transfer(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	return m.TransferFromTo(ctx, asset, from, to, amount)
}

// Approve increases the allowance owner grants to spender by amount.
func (m *Memory) Approve(ctx context.Context, asset, owner, spender common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, err := m.token(asset)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(t.allowance(owner, spender), amount)
	if overflow {
		return ErrOverflow
	}
	t.allowances[allowanceKey{owner: owner, spender: spender}] = next
	return nil
}

func (m *Memory) TransferFrom(ctx context.Context, asset, owner, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferFrom(nil, asset, owner, to, amount)
}

func (m *Memory) TransferFromTo(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transferFromTo(nil, asset, from, to, amount)
}

func (m *Memory) transferFrom(j *journal, asset, owner, to common.Address, amount *uint256.Int) error {
	t, err := m.token(asset)
	if err != nil {
		return err
	}
	if err := checkTransfer(t, owner, to, amount); err != nil {
		return err
	}
	allowance := t.allowance(owner, to)
	if allowance.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := move(j, t, owner, to, amount); err != nil {
		return err
	}
	j.setAllowance(t, allowanceKey{owner: owner, spender: to}, new(uint256.Int).Sub(allowance, amount))
	return nil
}

func (m *Memory) transferFromTo(j *journal, asset, from, to common.Address, amount *uint256.Int) error {
	t, err := m.token(asset)
	if err != nil {
		return err
	}
	if err := checkTransfer(t, from, to, amount); err != nil {
		return err
	}
	return move(j, t, from, to, amount)
}

func checkTransfer(t *token, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroTransfer
	}
	if from == to {
		return ErrSelfTransfer
	}
	if t.balance(from).Lt(amount) {
		return ErrInsufficientFunds
	}
	return nil
}

// move debits and credits without partial effects: both results are computed
// before either balance is written.
func move(j *journal, t *token, from, to common.Address, amount *uint256.Int) error {
	debited := new(uint256.Int).Sub(t.balance(from), amount)
	credited, overflow := new(uint256.Int).AddOverflow(t.balance(to), amount)
	if overflow {
		return ErrOverflow
	}
	j.setBalance(t, from, debited)
	j.setBalance(t, to, credited)
	return nil
}

// journal records how to undo the writes of a transaction. A nil journal
// writes without recording. Stored amounts are never mutated in place, so
// keeping the previous pointer is enough to restore it.
type journal struct {
	undo []func()
}

func (j *journal) setBalance(t *token, account common.Address, v *uint256.Int) {
	if j != nil {
		prev, ok := t.balances[account]
		j.undo = append(j.undo, func() {
			if ok {
				t.balances[account] = prev
			} else {
				delete(t.balances, account)
			}
		})
	}
	t.balances[account] = v
}

func (j *journal) setAllowance(t *token, key allowanceKey, v *uint256.Int) {
	if j != nil {
		prev, ok := t.allowances[key]
		j.undo = append(j.undo, func() {
			if ok {
				t.allowances[key] = prev
			} else {
				delete(t.allowances, key)
			}
		})
	}
	t.allowances[key] = v
}

func (j *journal) revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// Begin opens a transaction. It blocks until no other transaction or write
// is in progress and keeps the ledger locked until Commit or Rollback.
func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	return &memoryTx{m: m}, nil
}

type memoryTx struct {
	m       *Memory
	journal journal
	done    bool
}

func (tx *memoryTx) BalanceOf(ctx context.Context, asset, account common.Address) (*uint256.Int, error) {
	if tx.done {
		return nil, ErrTxDone
	}
	t, err := tx.m.token(asset)
	if err != nil {
		return nil, err
	}
	return t.balance(account).Clone(), nil
}

func (tx *memoryTx) TransferFrom(ctx context.Context, asset, owner, to common.Address, amount *uint256.Int) error {
	if tx.done {
		return ErrTxDone
	}
	return tx.m.transferFrom(&tx.journal, asset, owner, to, amount)
}

func (tx *memoryTx) TransferFromTo(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	if tx.done {
		return ErrTxDone
	}
	return tx.m.transferFromTo(&tx.journal, asset, from, to, amount)
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	tx.journal.undo = nil
	tx.m.mu.Unlock()
	return nil
}

// Rollback undoes every write of the transaction. It is a no-op once the
// transaction has finished.
func (tx *memoryTx) Rollback() {
	if tx.done {
		return
	}
	tx.done = true
	tx.journal.revert()
	tx.m.mu.Unlock()
}
