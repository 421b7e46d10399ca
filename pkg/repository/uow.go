package repository

import "context"

// UnitOfWork provides a transaction boundary and repository access in one
// abstraction. Repositories obtained from the uow passed to fn share its
// transaction: either every write inside fn commits or none does.
//
// Repositories obtained from the root UnitOfWork (outside Do) run each call in
// its own implicit transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
	AccountRepository() (AccountRepository, error)
	TransactionRepository() (TransactionRepository, error)
}
