package memory

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/repository"
)

// UoW implements repository.UnitOfWork on top of a Store.
type UoW struct {
	store *Store
	unit  *unit
}

// NewUoW creates a root unit of work over store.
func NewUoW(store *Store) *UoW {
	return &UoW{store: store}
}

// Do runs fn inside a unit of work. Staged writes are applied only when fn
// returns nil and ctx is still live. Nested calls join the enclosing unit.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.unit != nil {
		return fn(u)
	}
	return u.store.run(ctx, func(un *unit) error {
		return fn(&UoW{store: u.store, unit: un})
	})
}

// AccountRepository returns an account repository bound to this unit.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepository{store: u.store, unit: u.unit}, nil
}

// TransactionRepository returns a transaction repository bound to this unit.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepository{store: u.store, unit: u.unit}, nil
}

func (s *Store) run(ctx context.Context, fn func(*unit) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	un := newUnit(s)
	defer un.release()
	if err := fn(un); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	un.commit()
	return nil
}

// within runs fn on the bound unit, or on a fresh single-call unit at root.
func within(ctx context.Context, s *Store, un *unit, fn func(*unit) error) error {
	if un != nil {
		return fn(un)
	}
	return s.run(ctx, fn)
}

var _ repository.UnitOfWork = (*UoW)(nil)
