package ledger

import "errors"

// Trade errors in rough order of detection. Validation errors are raised
// before any I/O; ErrPersistence wraps store failures surfaced to the caller.
var (
	ErrInvalidQuantity    = errors.New("quantity must be greater than zero")
	ErrInvalidSymbol      = errors.New("symbol is required")
	ErrInvalidSide        = errors.New("side must be buy or sell")
	ErrAccountNotFound    = errors.New("account not found")
	ErrPriceUnavailable   = errors.New("price unavailable")
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInsufficientShares = errors.New("not enough shares")
	ErrPersistence        = errors.New("persistence failure")
)
