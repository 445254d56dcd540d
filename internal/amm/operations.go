package amm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/ledger"
	"github.com/SupremaLex/DummyDEX/internal/liquidity"
	"github.com/SupremaLex/DummyDEX/internal/model"
	"github.com/SupremaLex/DummyDEX/internal/pricing"
)

// Withdrawal is the outcome of a proportional withdrawal.
type Withdrawal struct {
	AmountA *uint256.Int
	AmountB *uint256.Int
	Shares  *uint256.Int
}

// Init creates the pool, pulling both amounts from caller into poolAccount.
// caller receives amountA + amountB shares.
func (p *Pool) Init(ctx context.Context, caller, poolAccount, assetA common.Address, amountA *uint256.Int, assetB common.Address, amountB *uint256.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return ErrAlreadyInitialized
	}
	if amountA == nil || amountB == nil || amountA.IsZero() || amountB.IsZero() {
		return fmt.Errorf("%w: zero amount", ErrWrongInitialization)
	}
	if poolAccount == (common.Address{}) {
		return fmt.Errorf("%w: zero pool account", ErrWrongInitialization)
	}
	if assetA == assetB {
		return fmt.Errorf("%w: identical assets", ErrWrongInitialization)
	}

	err := p.atomically(ctx, "init", func(l ledger.Ledger, book *liquidity.Accountant) error {
		if err := l.TransferFrom(ctx, assetA, caller, poolAccount, amountA); err != nil {
			return err
		}
		if err := l.TransferFrom(ctx, assetB, caller, poolAccount, amountB); err != nil {
			return err
		}
		if err := book.Mint(caller, assetA, amountA); err != nil {
			return err
		}
		return book.Mint(caller, assetB, amountB)
	})
	if err != nil {
		return err
	}

	p.initialized = true
	p.address = poolAccount
	p.assetA = assetA
	p.assetB = assetB

	shares := p.shares.TotalShares()
	p.logger.Info("pool initialized",
		zap.String("pool", poolAccount.Hex()),
		zap.String("caller", caller.Hex()),
		zap.String("asset_a", assetA.Hex()),
		zap.String("amount_a", arith.String(amountA)),
		zap.String("asset_b", assetB.Hex()),
		zap.String("amount_b", arith.String(amountB)),
		zap.String("shares", arith.String(shares)),
	)
	p.publish(ctx, model.EventInitialized, model.InitializedEventData{
		Caller:  caller.Hex(),
		AssetA:  assetA.Hex(),
		AmountA: arith.String(amountA),
		AssetB:  assetB.Hex(),
		AmountB: arith.String(amountB),
		Shares:  arith.String(shares),
	})
	return nil
}

// Quote prices a swap of amountIn without executing it.
func (p *Pool) Quote(ctx context.Context, assetIn common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, out, err := p.quote(ctx, assetIn, amountIn)
	return out, err
}

func (p *Pool) quote(ctx context.Context, assetIn common.Address, amountIn *uint256.Int) (common.Address, *uint256.Int, error) {
	if !p.initialized {
		return common.Address{}, nil, ErrUninitialized
	}
	assetOut, err := p.other(assetIn)
	if err != nil {
		return common.Address{}, nil, err
	}
	if p.shares.TotalShares().IsZero() {
		return common.Address{}, nil, ErrNoLiquidity
	}
	out, err := QuoteAt(ctx, p.ledger, p.address, assetIn, assetOut, amountIn)
	if err != nil {
		return common.Address{}, nil, err
	}
	return assetOut, out, nil
}

// BuyToken sells amountIn of assetIn to the pool and returns the amount of
// the other asset sent back to caller.
func (p *Pool) BuyToken(ctx context.Context, caller, assetIn common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	assetOut, bought, err := p.quote(ctx, assetIn, amountIn)
	if err != nil {
		return nil, err
	}
	fee, err := pricing.Fee(amountIn)
	if err != nil {
		return nil, err
	}

	err = p.atomically(ctx, "buy", func(l ledger.Ledger, _ *liquidity.Accountant) error {
		if err := l.TransferFrom(ctx, assetIn, caller, p.address, amountIn); err != nil {
			return err
		}
		return l.TransferFromTo(ctx, assetOut, p.address, caller, bought)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("token bought",
		zap.String("caller", caller.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("amount_in", arith.String(amountIn)),
		zap.String("amount_out", arith.String(bought)),
	)
	p.publish(ctx, model.EventTokenBought, model.TokenBoughtEventData{
		Caller:    caller.Hex(),
		AssetIn:   assetIn.Hex(),
		AmountIn:  arith.String(amountIn),
		AssetOut:  assetOut.Hex(),
		AmountOut: arith.String(bought),
		Fee:       arith.String(fee),
	})
	return bought, nil
}

// depositReserves validates a deposit of assetIn and reads both reserves.
func (p *Pool) depositReserves(ctx context.Context, assetIn common.Address) (common.Address, *uint256.Int, *uint256.Int, error) {
	if !p.initialized {
		return common.Address{}, nil, nil, ErrUninitialized
	}
	assetOut, err := p.other(assetIn)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	reserveIn, err := p.reserve(ctx, assetIn)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	if reserveIn.IsZero() {
		return common.Address{}, nil, nil, ErrNoLiquidity
	}
	reserveOut, err := p.reserve(ctx, assetOut)
	if err != nil {
		return common.Address{}, nil, nil, err
	}
	return assetOut, reserveIn, reserveOut, nil
}

// Deposit adds amountIn of assetIn plus the matching amount of the other
// asset at the current reserve ratio. It returns the minted shares.
func (p *Pool) Deposit(ctx context.Context, caller, assetIn common.Address, amountIn *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkAmount(amountIn); err != nil {
		return nil, err
	}
	assetOut, reserveIn, reserveOut, err := p.depositReserves(ctx, assetIn)
	if err != nil {
		return nil, err
	}
	amountOut, err := arith.MulDiv(amountIn, reserveOut, reserveIn)
	if err != nil {
		return nil, err
	}
	minted, err := arith.Add(amountIn, amountOut)
	if err != nil {
		return nil, err
	}

	err = p.atomically(ctx, "deposit", func(l ledger.Ledger, book *liquidity.Accountant) error {
		if err := l.TransferFrom(ctx, assetIn, caller, p.address, amountIn); err != nil {
			return err
		}
		if err := l.TransferFrom(ctx, assetOut, caller, p.address, amountOut); err != nil {
			return err
		}
		if err := book.Mint(caller, assetIn, amountIn); err != nil {
			return err
		}
		return book.Mint(caller, assetOut, amountOut)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("liquidity deposited",
		zap.String("caller", caller.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("amount_in", arith.String(amountIn)),
		zap.String("amount_out", arith.String(amountOut)),
		zap.String("shares", arith.String(minted)),
	)
	p.publish(ctx, model.EventDeposited, model.DepositedEventData{
		Caller:    caller.Hex(),
		AssetIn:   assetIn.Hex(),
		AmountIn:  arith.String(amountIn),
		AssetOut:  assetOut.Hex(),
		AmountOut: arith.String(amountOut),
		Shares:    arith.String(minted),
	})
	return minted, nil
}

// DepositSingleToken deposits only assetIn. Part of amount is sold to the
// pool so that the rest and the proceeds match the post-swap reserve ratio;
// both are then added as liquidity and rounding leftovers are sent back to
// caller. Only an allowance on assetIn is needed.
func (p *Pool) DepositSingleToken(ctx context.Context, caller, assetIn common.Address, amount *uint256.Int) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	assetOut, reserveIn, reserveOut, err := p.depositReserves(ctx, assetIn)
	if err != nil {
		return nil, err
	}
	split, err := pricing.SplitDeposit(amount, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	minted, err := split.Minted()
	if err != nil {
		return nil, err
	}
	fee, err := pricing.Fee(split.Swapped)
	if err != nil {
		return nil, err
	}

	err = p.atomically(ctx, "deposit_single", func(l ledger.Ledger, book *liquidity.Accountant) error {
		if err := l.TransferFrom(ctx, assetIn, caller, p.address, amount); err != nil {
			return err
		}
		if !split.RefundIn.IsZero() {
			if err := l.TransferFromTo(ctx, assetIn, p.address, caller, split.RefundIn); err != nil {
				return err
			}
		}
		if !split.RefundOut.IsZero() {
			if err := l.TransferFromTo(ctx, assetOut, p.address, caller, split.RefundOut); err != nil {
				return err
			}
		}
		if err := book.Mint(caller, assetIn, split.DepositIn); err != nil {
			return err
		}
		return book.Mint(caller, assetOut, split.DepositOut)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("single-sided liquidity deposited",
		zap.String("caller", caller.Hex()),
		zap.String("asset_in", assetIn.Hex()),
		zap.String("amount_in", arith.String(amount)),
		zap.String("swapped", arith.String(split.Swapped)),
		zap.String("shares", arith.String(minted)),
	)
	p.publish(ctx, model.EventDeposited, model.DepositedEventData{
		Caller:    caller.Hex(),
		AssetIn:   assetIn.Hex(),
		AmountIn:  arith.String(amount),
		AssetOut:  assetOut.Hex(),
		AmountOut: arith.String(split.DepositOut),
		Shares:    arith.String(minted),
		Single:    true,
		Swapped:   arith.String(split.Swapped),
		Fee:       arith.String(fee),
		RefundIn:  arith.String(split.RefundIn),
		RefundOut: arith.String(split.RefundOut),
	})
	return minted, nil
}

// withdrawal is a planned proportional withdrawal.
type withdrawal struct {
	amountA *uint256.Int
	amountB *uint256.Int
	burnA   *uint256.Int
	burnB   *uint256.Int
}

func (w withdrawal) shares() *uint256.Int {
	// burnA + burnB never exceeds the total share count.
	return new(uint256.Int).Add(w.burnA, w.burnB)
}

// planWithdrawal computes what percent of caller's position is worth. In
// shared mode the whole burn is booked against asset A, which the share book
// folds onto the single counter.
func (p *Pool) planWithdrawal(book *liquidity.Accountant, caller common.Address, percent uint32, reserveA, reserveB *uint256.Int) (withdrawal, error) {
	pct := arith.PerbillFromPercent(percent)
	fracA := pct.Mul(book.AssetShare(caller, p.assetA))
	fracB := pct.Mul(book.AssetShare(caller, p.assetB))
	if fracA.IsZero() && fracB.IsZero() {
		return withdrawal{}, fmt.Errorf("%w: %s holds no withdrawable shares", ErrNoLiquidity, caller.Hex())
	}

	w := withdrawal{
		amountA: fracA.Apply(reserveA, p.cfg.Rounding),
		amountB: fracB.Apply(reserveB, p.cfg.Rounding),
	}
	if book.Mode() == liquidity.ModeShared {
		w.burnA = fracA.Apply(book.TotalShares(), p.cfg.Rounding)
		w.burnB = new(uint256.Int)
	} else {
		w.burnA = fracA.Apply(book.Total(p.assetA), p.cfg.Rounding)
		w.burnB = fracB.Apply(book.Total(p.assetB), p.cfg.Rounding)
	}
	return w, nil
}

func (p *Pool) burn(book *liquidity.Accountant, caller common.Address, w withdrawal) error {
	if err := book.Burn(caller, p.assetA, w.burnA); err != nil {
		return err
	}
	if w.burnB.IsZero() {
		return nil
	}
	return book.Burn(caller, p.assetB, w.burnB)
}

func (p *Pool) withdrawPreamble(percent uint32) error {
	if !p.initialized {
		return ErrUninitialized
	}
	if percent == 0 || percent > 100 {
		return ErrWrongShareValue
	}
	if p.shares.TotalShares().IsZero() {
		return ErrNoLiquidity
	}
	return nil
}

// Withdraw redeems percent of caller's shares for both assets.
func (p *Pool) Withdraw(ctx context.Context, caller common.Address, percent uint32) (Withdrawal, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.withdrawPreamble(percent); err != nil {
		return Withdrawal{}, err
	}
	reserveA, reserveB, err := p.reserves(ctx)
	if err != nil {
		return Withdrawal{}, err
	}

	var plan withdrawal
	err = p.atomically(ctx, "withdraw", func(l ledger.Ledger, book *liquidity.Accountant) error {
		var err error
		plan, err = p.planWithdrawal(book, caller, percent, reserveA, reserveB)
		if err != nil {
			return err
		}
		if err := p.burn(book, caller, plan); err != nil {
			return err
		}
		if err := p.payout(ctx, l, p.assetA, caller, plan.amountA); err != nil {
			return err
		}
		return p.payout(ctx, l, p.assetB, caller, plan.amountB)
	})
	if err != nil {
		return Withdrawal{}, err
	}

	out := Withdrawal{AmountA: plan.amountA, AmountB: plan.amountB, Shares: plan.shares()}
	p.logger.Info("liquidity withdrawn",
		zap.String("caller", caller.Hex()),
		zap.Uint32("percent", percent),
		zap.String("amount_a", arith.String(out.AmountA)),
		zap.String("amount_b", arith.String(out.AmountB)),
		zap.String("shares", arith.String(out.Shares)),
	)
	p.publish(ctx, model.EventWithdrawn, model.WithdrawnEventData{
		Caller:  caller.Hex(),
		Percent: percent,
		AmountA: arith.String(out.AmountA),
		AmountB: arith.String(out.AmountB),
		Shares:  arith.String(out.Shares),
	})
	return out, nil
}

// WithdrawSingleToken redeems percent of caller's shares for assetOut only.
// The proportional amount of the other asset stays in the pool and is sold
// for assetOut at the post-withdrawal reserves. It returns the amount sent
// to caller.
func (p *Pool) WithdrawSingleToken(ctx context.Context, caller, assetOut common.Address, percent uint32) (*uint256.Int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.withdrawPreamble(percent); err != nil {
		return nil, err
	}
	unwanted, err := p.other(assetOut)
	if err != nil {
		return nil, err
	}
	reserveA, reserveB, err := p.reserves(ctx)
	if err != nil {
		return nil, err
	}

	var (
		plan     withdrawal
		received *uint256.Int
		swapped  *uint256.Int
		bought   = new(uint256.Int)
		fee      = new(uint256.Int)
	)
	err = p.atomically(ctx, "withdraw_single", func(l ledger.Ledger, book *liquidity.Accountant) error {
		var err error
		plan, err = p.planWithdrawal(book, caller, percent, reserveA, reserveB)
		if err != nil {
			return err
		}
		if err := p.burn(book, caller, plan); err != nil {
			return err
		}

		wanted, unwantedAmount := plan.amountA, plan.amountB
		reserveWanted, reserveUnwanted := reserveA, reserveB
		if assetOut == p.assetB {
			wanted, unwantedAmount = plan.amountB, plan.amountA
			reserveWanted, reserveUnwanted = reserveB, reserveA
		}
		left, err := arith.Sub(reserveWanted, wanted)
		if err != nil {
			return err
		}
		swapped = unwantedAmount
		if !unwantedAmount.IsZero() {
			if bought, err = pricing.Price(unwantedAmount, reserveUnwanted, left); err != nil {
				return err
			}
			if fee, err = pricing.Fee(unwantedAmount); err != nil {
				return err
			}
		}
		if received, err = arith.Add(wanted, bought); err != nil {
			return err
		}
		return p.payout(ctx, l, assetOut, caller, received)
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("single-sided liquidity withdrawn",
		zap.String("caller", caller.Hex()),
		zap.String("asset_out", assetOut.Hex()),
		zap.String("unwanted", unwanted.Hex()),
		zap.Uint32("percent", percent),
		zap.String("received", arith.String(received)),
		zap.String("shares", arith.String(plan.shares())),
	)
	p.publish(ctx, model.EventWithdrawn, model.WithdrawnEventData{
		Caller:   caller.Hex(),
		Percent:  percent,
		AmountA:  arith.String(plan.amountA),
		AmountB:  arith.String(plan.amountB),
		Shares:   arith.String(plan.shares()),
		AssetOut: assetOut.Hex(),
		Swapped:  arith.String(swapped),
		Bought:   arith.String(bought),
		Fee:      arith.String(fee),
	})
	return received, nil
}

// payout sends amount from the pool account. Zero legs are skipped so that
// dust-sized positions can still be closed.
func (p *Pool) payout(ctx context.Context, l ledger.Ledger, asset, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	return l.TransferFromTo(ctx, asset, p.address, to, amount)
}
