package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/google/uuid"
)

type transactionRepository struct {
	store *Store
	unit  *unit
}

func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	return within(ctx, r.store, r.unit, func(u *unit) error {
		if u.txn(tx.ID) != nil {
			return domain.ErrAlreadyExists
		}
		u.txns[tx.ID] = tx.Clone()
		u.newTxns = append(u.newTxns, tx.ID)
		return nil
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	return r.get(ctx, id, false)
}

func (r *transactionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	return r.get(ctx, id, true)
}

func (r *transactionRepository) get(ctx context.Context, id uuid.UUID, forUpdate bool) (tx *account.Transaction, err error) {
	err = within(ctx, r.store, r.unit, func(u *unit) error {
		if forUpdate {
			u.lock(txnKey(id))
		}
		t := u.txn(id)
		if t == nil {
			return domain.ErrTransactionNotFound
		}
		tx = t.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *transactionRepository) MarkCancelled(ctx context.Context, tx *account.Transaction) error {
	if tx.Cancellation == nil {
		return fmt.Errorf("%w: cancellation details are required", domain.ErrValidation)
	}
	return within(ctx, r.store, r.unit, func(u *unit) error {
		u.lock(txnKey(tx.ID))
		cur := u.txn(tx.ID)
		if cur == nil {
			return domain.ErrTransactionNotFound
		}
		if cur.Status != account.StatusValidated {
			return domain.ErrAlreadyCancelled
		}
		next := cur.Clone()
		next.Status = account.StatusCancelled
		c := *tx.Cancellation
		next.Cancellation = &c
		u.txns[tx.ID] = next
		return nil
	})
}

func (r *transactionRepository) ListByAccount(_ context.Context, number string, limit int) ([]*account.Transaction, error) {
	return r.list(limit, func(t *account.Transaction) bool { return t.Touches(number) }), nil
}

func (r *transactionRepository) List(_ context.Context, limit int) ([]*account.Transaction, error) {
	return r.list(limit, func(*account.Transaction) bool { return true }), nil
}

// list returns committed transactions matching keep, newest first. A
// non-positive limit returns every match.
func (r *transactionRepository) list(limit int, keep func(*account.Transaction) bool) []*account.Transaction {
	r.store.mu.RLock()
	out := make([]*account.Transaction, 0)
	for i := len(r.store.order) - 1; i >= 0; i-- {
		t := r.store.txns[r.store.order[i]]
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	r.store.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b *account.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var _ repository.TransactionRepository = (*transactionRepository)(nil)
