// Package ledger defines the token ledger the pool settles against and an
// in-memory multi-token implementation of it.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BalanceReader reads token balances.
type BalanceReader interface {
	BalanceOf(ctx context.Context, asset, account common.Address) (*uint256.Int, error)
}

// Ledger is what a pool needs from the token layer.
//
// TransferFrom moves amount from owner to `to`, consuming the allowance owner
// granted to `to`. TransferFromTo moves funds without an allowance check and is
// only used for funds the caller already controls (the pool's own account).
type Ledger interface {
	BalanceReader
	TransferFrom(ctx context.Context, asset, owner, to common.Address, amount *uint256.Int) error
	TransferFromTo(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error
}

// Transactor is implemented by ledgers that can apply a group of transfers
// as one unit.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an open unit of work. Exactly one of Commit or Rollback must be
// called, and a Tx must not be used from more than one goroutine.
type Tx interface {
	Ledger
	Commit() error
	Rollback()
}
