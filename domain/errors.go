package domain

import "errors"

// Sentinel errors shared by every layer. Callers wrap them with %w and the HTTP
// boundary matches them with errors.Is.
var (
	ErrInvalidFormat      = errors.New("username must be 3-20 characters of a-z, 0-9 or underscore")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidWallet      = errors.New("invalid wallet address")
	ErrInvalidReferrer    = errors.New("invalid referrer")
	ErrUsernameTaken      = errors.New("username taken")
	ErrWalletInUse        = errors.New("wallet already linked to another user")
	ErrNotFound           = errors.New("not found")
	ErrNotPaid            = errors.New("access fee not paid")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrOracleUnreachable  = errors.New("payment oracle unreachable")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
