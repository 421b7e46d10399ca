package repository

import (
	"context"
	"fmt"
	"math"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/repository"
	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on db, which may be a
// transaction handle.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(toAccountModel(acc)).Error
	})
}

func (r *accountRepository) Get(ctx context.Context, number string) (*account.Account, error) {
	return r.first(ctx, "account_number = ?", number)
}

func (r *accountRepository) GetByOwner(ctx context.Context, ownerRef string) (*account.Account, error) {
	return r.first(ctx, "owner_ref = ?", ownerRef)
}

func (r *accountRepository) first(ctx context.Context, query string, arg string) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		return nil, mapNotFound(err, domain.ErrAccountNotFound)
	}
	return m.toDomain()
}

func (r *accountRepository) List(ctx context.Context) ([]*account.Account, error) {
	var ms []Account
	if err := r.db.WithContext(ctx).Order("created_at, account_number").Find(&ms).Error; err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		a, err := ms[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *accountRepository) Balance(ctx context.Context, number string) (int64, error) {
	a, err := r.Get(ctx, number)
	if err != nil {
		return 0, err
	}
	return a.Balance, nil
}

// Credit adds amount in one conditional UPDATE. The guard rejects results
// above math.MaxInt64.
func (r *accountRepository) Credit(ctx context.Context, number string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit amount must be positive", domain.ErrInvalidAmount)
	}
	res := r.db.WithContext(ctx).Model(&Account{}).
		Where("account_number = ? AND balance <= ?", number, math.MaxInt64-amount).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, number); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("%w: credit overflows balance", domain.ErrInvalidAmount)
	}
	return r.Balance(ctx, number)
}

// Debit subtracts amount in one conditional UPDATE that only matches when the
// balance covers it, so concurrent debits can never overdraw.
func (r *accountRepository) Debit(ctx context.Context, number string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit amount must be positive", domain.ErrInvalidAmount)
	}
	res := r.db.WithContext(ctx).Model(&Account{}).
		Where("account_number = ? AND balance >= ?", number, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return 0, MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := r.Get(ctx, number); err != nil {
			return 0, err
		}
		return 0, domain.ErrInsufficientFunds
	}
	return r.Balance(ctx, number)
}
