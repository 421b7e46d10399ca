package repository

import (
	"errors"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the ledger reacts to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgUniqueViolation      = "23505"
)

// MapGormErrorToDomain converts GORM and driver errors to domain errors.
// Traverses the error chain so wrapped driver errors are recognised. Errors
// that already are domain errors pass through unchanged.
func MapGormErrorToDomain(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	var liteErr sqlite3.Error

	currentErr := err
	for currentErr != nil {
		switch {
		case errors.Is(currentErr, gorm.ErrDuplicatedKey):
			return domain.ErrAlreadyExists
		case errors.Is(currentErr, gorm.ErrRecordNotFound):
			return domain.ErrNotFound
		case errors.As(currentErr, &pgErr):
			switch pgErr.Code {
			case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
				return errors.Join(domain.ErrConcurrencyConflict, err)
			case pgUniqueViolation:
				return domain.ErrAlreadyExists
			}
		case errors.As(currentErr, &liteErr):
			switch {
			case liteErr.Code == sqlite3.ErrBusy, liteErr.Code == sqlite3.ErrLocked:
				return errors.Join(domain.ErrConcurrencyConflict, err)
			case liteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
				liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
				return domain.ErrAlreadyExists
			}
		}

		currentErr = errors.Unwrap(currentErr)
	}

	return err
}

// mapNotFound maps a missing record to the given domain error and everything
// else through MapGormErrorToDomain.
func mapNotFound(err error, notFound error) error {
	mapped := MapGormErrorToDomain(err)
	if errors.Is(mapped, domain.ErrNotFound) {
		return notFound
	}
	return mapped
}

// WrapError wraps a GORM operation and automatically maps errors.
func WrapError(op func() error) error {
	return MapGormErrorToDomain(op())
}
