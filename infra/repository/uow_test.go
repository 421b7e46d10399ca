package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })
	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestUoW_TypeSafeMethods(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	accountRepo, err := uow.AccountRepository()
	require.NoError(t, err)
	assert.IsType(t, &accountRepository{}, accountRepo)

	transactionRepo, err := uow.TransactionRepository()
	require.NoError(t, err)
	assert.IsType(t, &transactionRepository{}, transactionRepo)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err = uow.Do(context.Background(), func(txUow repository.UnitOfWork) error {
		accountRepo, err := txUow.AccountRepository()
		require.NoError(t, err)
		assert.NotNil(t, accountRepo)

		nested := txUow.Do(context.Background(), func(repository.UnitOfWork) error { return nil })
		assert.NoError(t, nested)
		return nil
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_RollbackOnError(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error {
		return domain.ErrInsufficientFunds
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUoW_CommitConflictIsRetryable(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	uow := NewUoW(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(&pgconn.PgError{Code: "40001"})

	err := uow.Do(context.Background(), func(repository.UnitOfWork) error { return nil })
	require.Error(t, err)
	assert.True(t, domain.IsRetryable(err))
}

func TestAccountRepository_DebitConditions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("insufficient funds", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`UPDATE "accounts" SET "balance"=balance - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE account_number = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"account_number", "owner_ref", "balance"}).
				AddRow("CM-1", "owner-1", 50))

		_, err := repo.Debit(ctx, "CM-1", 100)
		require.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`UPDATE "accounts" SET "balance"=balance - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE account_number = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"account_number", "owner_ref", "balance"}))

		_, err := repo.Debit(ctx, "CM-404", 100)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success returns new balance", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db)

		mock.ExpectExec(`UPDATE "accounts" SET "balance"=balance - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE account_number = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"account_number", "owner_ref", "balance"}).
				AddRow("CM-1", "owner-1", 400))

		bal, err := repo.Debit(ctx, "CM-1", 100)
		require.NoError(t, err)
		assert.Equal(t, int64(400), bal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive amount never reaches the database", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		repo := NewAccountRepository(db)

		_, err := repo.Debit(ctx, "CM-1", 0)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		_, err = repo.Credit(ctx, "CM-1", -1)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_MarkCancelledTwice(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectExec(`UPDATE "transactions" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT \* FROM "transactions" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "kind", "amount", "dest_account", "initiator", "status"}).
			AddRow("6f1c2a1e-8a53-4d6e-9b8e-2f0a1d3c4b5a", "deposit", 500, "CM-1", "agent", "cancelled"))

	tx := cancelledDeposit(t)
	err := repo.MarkCancelled(context.Background(), tx)
	require.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func cancelledDeposit(t *testing.T) *account.Transaction {
	t.Helper()
	tx, err := account.NewDeposit("CM-1", 500, "agent", time.Now())
	require.NoError(t, err)
	require.NoError(t, tx.Cancel("agent", "duplicate", time.Now()))
	return tx
}

func TestTransactionRepository_ListError(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	repo := NewTransactionRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "transactions"`).WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), 10)
	require.EqualError(t, err, "connection reset")
}
