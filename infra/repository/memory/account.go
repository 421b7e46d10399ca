package memory

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/repository"
)

type accountRepository struct {
	store *Store
	unit  *unit
}

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	return within(ctx, r.store, r.unit, func(u *unit) error {
		if u.account(acc.Number) != nil {
			return domain.ErrAlreadyExists
		}
		u.lock(ownerKey(acc.OwnerRef))
		if r.ownerTaken(u, acc.OwnerRef) {
			return domain.ErrAlreadyExists
		}
		c := acc.Clone()
		u.accounts[c.Number] = c
		u.dirty[c.Number] = true
		u.created[c.Number] = true
		return nil
	})
}

func (r *accountRepository) ownerTaken(u *unit, ref string) bool {
	for n := range u.created {
		if u.accounts[n].OwnerRef == ref {
			return true
		}
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.owners[ref]
	return ok
}

func (r *accountRepository) Get(ctx context.Context, number string) (acc *account.Account, err error) {
	err = within(ctx, r.store, r.unit, func(u *unit) error {
		a := u.account(number)
		if a == nil {
			return domain.ErrAccountNotFound
		}
		acc = a.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (r *accountRepository) GetByOwner(ctx context.Context, ownerRef string) (*account.Account, error) {
	if r.unit != nil {
		for n := range r.unit.created {
			if a := r.unit.accounts[n]; a.OwnerRef == ownerRef {
				return a.Clone(), nil
			}
		}
	}
	r.store.mu.RLock()
	number, ok := r.store.owners[ownerRef]
	r.store.mu.RUnlock()
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.Get(ctx, number)
}

func (r *accountRepository) List(_ context.Context) ([]*account.Account, error) {
	r.store.mu.RLock()
	out := make([]*account.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		out = append(out, a.Clone())
	}
	r.store.mu.RUnlock()
	slices.SortFunc(out, func(a, b *account.Account) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Number, b.Number)
	})
	return out, nil
}

func (r *accountRepository) Balance(ctx context.Context, number string) (int64, error) {
	acc, err := r.Get(ctx, number)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

func (r *accountRepository) Credit(ctx context.Context, number string, amount int64) (int64, error) {
	return r.mutate(ctx, number, func(a *account.Account) error { return a.Credit(amount) })
}

func (r *accountRepository) Debit(ctx context.Context, number string, amount int64) (int64, error) {
	return r.mutate(ctx, number, func(a *account.Account) error { return a.Debit(amount) })
}

func (r *accountRepository) mutate(ctx context.Context, number string, op func(*account.Account) error) (balance int64, err error) {
	err = within(ctx, r.store, r.unit, func(u *unit) error {
		a := u.account(number)
		if a == nil {
			return domain.ErrAccountNotFound
		}
		if err := op(a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now().UTC()
		u.dirty[number] = true
		balance = a.Balance
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

var _ repository.AccountRepository = (*accountRepository)(nil)
