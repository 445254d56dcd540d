package amm

import (
	"errors"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/pricing"
)

var (
	ErrUninitialized       = errors.New("pool not initialized")
	ErrAlreadyInitialized  = errors.New("pool already initialized")
	ErrWrongInitialization = errors.New("wrong pool initialization")
	ErrWrongTokenID        = errors.New("token is not traded by the pool")
	ErrWrongShareValue     = errors.New("share percent must be in (0, 100]")
	ErrNoLiquidity         = errors.New("no liquidity")
	ErrModeMismatch        = errors.New("liquidity mode mismatch")

	ErrOverflow          = arith.ErrOverflow
	ErrDivisionByZero    = arith.ErrDivisionByZero
	ErrInsufficientInput = pricing.ErrInsufficientInput
)
