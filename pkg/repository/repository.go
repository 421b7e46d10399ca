package repository

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// AccountRepository stores accounts and applies atomic balance mutations.
// Credit and Debit change the balance in a single conditional step and return
// the resulting balance; they never read-modify-write.
type AccountRepository interface {
	// Create stores a new account. Returns domain.ErrAlreadyExists when the
	// number or the owner is taken.
	Create(ctx context.Context, acc *account.Account) error
	// Get returns domain.ErrAccountNotFound for unknown numbers.
	Get(ctx context.Context, number string) (*account.Account, error)
	GetByOwner(ctx context.Context, ownerRef string) (*account.Account, error)
	List(ctx context.Context) ([]*account.Account, error)
	Balance(ctx context.Context, number string) (int64, error)
	// Credit adds amount and returns the new balance. Overflow yields
	// domain.ErrInvalidAmount.
	Credit(ctx context.Context, number string, amount int64) (int64, error)
	// Debit subtracts amount only if the balance covers it, otherwise
	// returns domain.ErrInsufficientFunds without changing anything.
	Debit(ctx context.Context, number string, amount int64) (int64, error)
}

// TransactionRepository is the append-only transaction log.
type TransactionRepository interface {
	Create(ctx context.Context, tx *account.Transaction) error
	// Get returns domain.ErrTransactionNotFound for unknown ids.
	Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error)
	// GetForUpdate is Get that also holds the transaction against concurrent
	// cancellation until the enclosing unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Transaction, error)
	// MarkCancelled persists the cancellation recorded on tx. It only succeeds
	// on a validated row and returns domain.ErrAlreadyCancelled otherwise.
	MarkCancelled(ctx context.Context, tx *account.Transaction) error
	// ListByAccount returns at most limit transactions touching the account,
	// newest first.
	ListByAccount(ctx context.Context, number string, limit int) ([]*account.Transaction, error)
	// List returns at most limit transactions across all accounts, newest first.
	List(ctx context.Context, limit int) ([]*account.Transaction, error)
}
