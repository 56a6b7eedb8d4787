package domain

import "errors"

var (
	// ErrAmountMustBePositive the amount must be strictly positive
	ErrAmountMustBePositive = errors.New("amount must be positive")

	// ErrAmountPrecision the amount has more decimal places than the ledger stores
	ErrAmountPrecision = errors.New("amount has more than 4 decimal places")

	// ErrRefIDConflict a client reference was already used for a different movement
	ErrRefIDConflict = errors.New("ref_id already used by a different transaction")

	// ErrInsufficientFunds the amount exceeds balance + limit
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrUserNotFound no user with the given id
	ErrUserNotFound = errors.New("user not found")

	// ErrAccountNotFound no account for the given user id
	ErrAccountNotFound = errors.New("account not found")

	// ErrSameAccount source and destination of a transfer are the same user
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrInvalidUser the user payload failed validation
	ErrInvalidUser = errors.New("invalid user")

	// ErrInvalidPage skip/limit outside the accepted window
	ErrInvalidPage = errors.New("invalid pagination window")
)
