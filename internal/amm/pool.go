// Package amm implements a two-asset constant-product pool settled against a
// token ledger.
package amm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/liquidity"
	"github.com/SupremaLex/DummyDEX/internal/model"
)

// Config controls pool bookkeeping.
type Config struct {
	Mode     liquidity.Mode
	Rounding arith.Rounding
	// Now stamps emitted events. Defaults to time.Now.
	Now func() time.Time
}

// EventSink receives events of committed operations.
type EventSink interface {
	PutEvents(ctx context.Context, events []model.PoolEvent) error
}

// Pool is a single two-asset pool. All methods are safe for concurrent use;
// operations are serialized and either fully applied or not at all.
//
// Reserves are never cached: they are the pool account's balances on the
// ledger. Rollback of ledger effects needs a ledger implementing
// ledger.Transactor; with any other ledger a transfer that fails after an
// earlier one succeeded leaves the earlier transfer in place.
type Pool struct {
	mu     sync.Mutex
	cfg    Config
	ledger ledger.Ledger
	shares *liquidity.Accountant
	sink   EventSink
	logger *zap.Logger

	initialized bool
	address     common.Address
	assetA      common.Address
	assetB      common.Address
	seq         uint64
}

func NewPool(cfg Config, l ledger.Ledger, sink EventSink, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Pool{
		cfg:    cfg,
		ledger: l,
		shares: liquidity.NewAccountant(cfg.Mode),
		sink:   sink,
		logger: logger,
	}
}

// Address returns the pool account.
func (p *Pool) Address() (common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return common.Address{}, ErrUninitialized
	}
	return p.address, nil
}

// TokenIDs returns the traded assets in initialization order.
func (p *Pool) TokenIDs() (common.Address, common.Address, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return common.Address{}, common.Address{}, ErrUninitialized
	}
	return p.assetA, p.assetB, nil
}

func (p *Pool) TotalShares() *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.TotalShares()
}

func (p *Pool) LiquidityOf(owner common.Address) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.LiquidityOf(owner)
}

// LiquidityOfAsset is owner's share balance backing asset. Outside
// per-asset mode it equals LiquidityOf.
func (p *Pool) LiquidityOfAsset(owner, asset common.Address) *uint256.Int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.LiquidityOfAsset(owner, asset)
}

func (p *Pool) PoolShare(owner common.Address) arith.Perbill {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.PoolShare(owner)
}

func (p *Pool) Providers() []common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shares.Providers()
}

// Reserves reads both pool balances from the ledger.
func (p *Pool) Reserves(ctx context.Context) (*uint256.Int, *uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil, nil, ErrUninitialized
	}
	return p.reserves(ctx)
}

// TotalReward is the amount of reserves not matched by shares, which is
// what the retained fees have added to the pool.
func (p *Pool) TotalReward(ctx context.Context) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return nil, ErrUninitialized
	}
	reserveA, reserveB, err := p.reserves(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := arith.Add(reserveA, reserveB)
	if err != nil {
		return nil, err
	}
	return arith.Sub(sum, p.shares.TotalShares())
}

func (p *Pool) other(asset common.Address) (common.Address, error) {
	switch asset {
	case p.assetA:
		return p.assetB, nil
	case p.assetB:
		return p.assetA, nil
	default:
		return common.Address{}, fmt.Errorf("%w: %s", ErrWrongTokenID, asset.Hex())
	}
}

func (p *Pool) reserve(ctx context.Context, asset common.Address) (*uint256.Int, error) {
	v, err := p.ledger.BalanceOf(ctx, asset, p.address)
	if err != nil {
		return nil, fmt.Errorf("read reserve %s: %w", asset.Hex(), err)
	}
	return v, nil
}

func (p *Pool) reserves(ctx context.Context) (*uint256.Int, *uint256.Int, error) {
	reserveA, err := p.reserve(ctx, p.assetA)
	if err != nil {
		return nil, nil, err
	}
	reserveB, err := p.reserve(ctx, p.assetB)
	if err != nil {
		return nil, nil, err
	}
	return reserveA, reserveB, nil
}

// atomically runs fn against a copy of the share book and, when the ledger
// supports it, inside a ledger transaction. The copy replaces the book only
// when fn succeeds and the transaction commits.
func (p *Pool) atomically(ctx context.Context, op string, fn func(l ledger.Ledger, book *liquidity.Accountant) error) error {
	book := p.shares.Clone()
	l := p.ledger
	var tx ledger.Tx
	if txr, ok := p.ledger.(ledger.Transactor); ok {
		var err error
		if tx, err = txr.Begin(ctx); err != nil {
			return fmt.Errorf("begin %s: %w", op, err)
		}
		l = tx
	}
	if err := fn(l, book); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		p.logger.Warn("operation rolled back", zap.String("op", op), zap.Error(err))
		return err
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", op, err)
		}
	}
	p.shares = book
	return nil
}
