package domain

import "errors"

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized is returned when a user is not authorized to perform an action
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a user is not allowed to perform an action
	ErrForbidden = errors.New("forbidden")
)

// Ledger errors. Every rejected ledger operation returns exactly one of these,
// possibly wrapped with context.
var (
	// ErrInvalidAmount is returned when an amount is not positive, is below the
	// configured minimum, or would overflow a balance.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAccountNotFound is returned when no account has the given number.
	ErrAccountNotFound = errors.New("account not found")
	// ErrTransactionNotFound is returned when no transaction has the given id.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrInsufficientFunds is returned when a debit exceeds the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAlreadyCancelled is returned when cancelling a transaction twice.
	ErrAlreadyCancelled = errors.New("transaction already cancelled")
	// ErrReversalInsufficientFunds is returned when reversing a deposit would
	// drive the current balance below zero.
	ErrReversalInsufficientFunds = errors.New("insufficient funds to reverse transaction")
	// ErrUnsupportedOperation is returned for operations the ledger does not implement (transfers).
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrConcurrencyConflict is returned when the store aborted the unit of work
	// because of contention. The whole operation may be retried.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// IsBusinessError reports whether err is an expected rejection of a request
// rather than an infrastructure failure.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrInsufficientFunds,
		ErrReversalInsufficientFunds,
		ErrAccountNotFound,
		ErrTransactionNotFound,
		ErrAlreadyCancelled,
		ErrAlreadyExists,
		ErrInvalidAmount,
		ErrValidation,
		ErrUnsupportedOperation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether the caller may safely retry the operation that
// produced err. Only ErrConcurrencyConflict is retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}
