package account

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
)

var (
	// ErrNumberRequired is returned when building an account without an account number.
	ErrNumberRequired = errors.New("account number is required")
	// ErrOwnerRequired is returned when building an account without an owner reference.
	ErrOwnerRequired = errors.New("owner reference is required")
	// ErrNegativeBalance is returned when hydrating an account with a negative balance.
	ErrNegativeBalance = errors.New("balance cannot be negative")
)

// Account is a customer account holding a single non-negative balance in
// minor units. It is identified by its human-readable account number.
//
// Invariants:
// - Balance is never negative.
// - Balance only changes through Credit and Debit, inside a unit of work.
type Account struct {
	Number    string
	OwnerRef  string
	Balance   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Builder provides a fluent API for constructing Account instances.
type Builder struct {
	number    string
	ownerRef  string
	balance   int64
	createdAt time.Time
	updatedAt time.Time
}

// New creates a new Builder with the creation time set to now.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{createdAt: now, updatedAt: now}
}

// WithNumber sets the account number. This is a mandatory field.
func (b *Builder) WithNumber(number string) *Builder {
	b.number = number
	return b
}

// WithOwnerRef sets the opaque owner reference. This is a mandatory field.
func (b *Builder) WithOwnerRef(ownerRef string) *Builder {
	b.ownerRef = ownerRef
	return b
}

// WithBalance sets the balance. This should only be used for hydrating an
// existing account from a data store or for test setup.
func (b *Builder) WithBalance(balance int64) *Builder {
	b.balance = balance
	return b
}

// WithCreatedAt sets the creation timestamp.
func (b *Builder) WithCreatedAt(t time.Time) *Builder {
	b.createdAt = t
	return b
}

// WithUpdatedAt sets the last-updated timestamp.
func (b *Builder) WithUpdatedAt(t time.Time) *Builder {
	b.updatedAt = t
	return b
}

// Build validates the invariants and returns the Account.
func (b *Builder) Build() (*Account, error) {
	if b.number == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrNumberRequired)
	}
	if b.ownerRef == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrOwnerRequired)
	}
	if b.balance < 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrNegativeBalance)
	}
	return &Account{
		Number:    b.number,
		OwnerRef:  b.ownerRef,
		Balance:   b.balance,
		CreatedAt: b.createdAt,
		UpdatedAt: b.updatedAt,
	}, nil
}

// Credit adds amount to the balance. The amount must be positive and must
// not overflow the balance.
func (a *Account) Credit(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidAmount)
	}
	if a.Balance > math.MaxInt64-amount {
		return fmt.Errorf("%w: credit overflows balance", domain.ErrInvalidAmount)
	}
	a.Balance += amount
	return nil
}

// Debit subtracts amount from the balance, refusing to go below zero.
func (a *Account) Debit(amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", domain.ErrInvalidAmount)
	}
	if a.Balance < amount {
		return domain.ErrInsufficientFunds
	}
	a.Balance -= amount
	return nil
}

// Clone returns a copy of the account.
func (a *Account) Clone() *Account {
	c := *a
	return &c
}
