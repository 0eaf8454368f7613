package wallet

import "errors"

var (
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrWalletUnavailable = errors.New("wallet unavailable")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInternal          = errors.New("internal error")
)
