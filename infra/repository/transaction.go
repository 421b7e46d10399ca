package repository

import (
	"context"
	"fmt"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction log repository on db.
func NewTransactionRepository(db *gorm.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toTransactionModel(tx)).Error
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	return r.get(r.db.WithContext(ctx), id)
}

// GetForUpdate takes a row lock on PostgreSQL. SQLite serialises writers on
// the whole database, so the plain read is enough there.
func (r *transactionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(q, id)
}

func (r *transactionRepository) get(q *gorm.DB, id uuid.UUID) (*account.Transaction, error) {
	var m Transaction
	if err := q.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrTransactionNotFound)
	}
	return m.toDomain()
}

// MarkCancelled flips a validated row to cancelled. The status guard in the
// WHERE clause makes a second cancellation match no row.
func (r *transactionRepository) MarkCancelled(ctx context.Context, tx *account.Transaction) error {
	c := tx.Cancellation
	if c == nil {
		return fmt.Errorf("%w: cancellation details are required", domain.ErrValidation)
	}
	res := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("id = ? AND status = ?", tx.ID, string(account.StatusValidated)).
		Updates(map[string]any{
			"status":              string(account.StatusCancelled),
			"cancelled_at":        c.At,
			"cancelled_by":        c.By,
			"cancellation_reason": c.Reason,
		})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, tx.ID); err != nil {
			return err
		}
		return domain.ErrAlreadyCancelled
	}
	return nil
}

func (r *transactionRepository) ListByAccount(ctx context.Context, number string, limit int) ([]*account.Transaction, error) {
	q := r.db.WithContext(ctx).Where("source_account = ? OR dest_account = ?", number, number)
	return r.list(q, limit)
}

func (r *transactionRepository) List(ctx context.Context, limit int) ([]*account.Transaction, error) {
	return r.list(r.db.WithContext(ctx), limit)
}

func (r *transactionRepository) list(q *gorm.DB, limit int) ([]*account.Transaction, error) {
	q = q.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []Transaction
	if err := q.Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Transaction, 0, len(ms))
	for i := range ms {
		t, err := ms[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
