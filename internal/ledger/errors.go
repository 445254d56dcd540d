package ledger

import "errors"

var (
	ErrTokenUninitialized    = errors.New("token not initialized")
	ErrAlreadyInitialized    = errors.New("token already initialized")
	ErrWrongInitialization   = errors.New("initial supply must be positive")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrSelfTransfer          = errors.New("transfer to self")
	ErrZeroTransfer          = errors.New("zero transfer")
	ErrOverflow              = errors.New("balance overflow")
	ErrTxDone                = errors.New("transaction already finished")
)
