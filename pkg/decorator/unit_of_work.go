// Package decorator provides decorators for cross-cutting concerns around the
// unit of work: lifecycle logging, timing and panic reporting.
package decorator

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/repository"
)

// LoggingUnitOfWork wraps a UnitOfWork and logs the outcome of every
// top-level Do. Business rejections (insufficient funds, unknown account and
// the like) are logged at debug level, infrastructure failures at error.
//
// Example:
//
//	uow := decorator.NewLoggingUnitOfWork(infra_repository.NewUoW(db), logger)
//	svc := ledger.New(uow, bus, logger, cfg)
type LoggingUnitOfWork struct {
	inner  repository.UnitOfWork
	logger *slog.Logger
	now    func() time.Time
}

// NewLoggingUnitOfWork creates a LoggingUnitOfWork around inner.
func NewLoggingUnitOfWork(inner repository.UnitOfWork, logger *slog.Logger) *LoggingUnitOfWork {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingUnitOfWork{inner: inner, logger: logger.With("component", "uow"), now: time.Now}
}

// Do runs fn through the wrapped unit of work. A panic inside fn is logged
// and re-raised after the inner unit has rolled back.
func (d *LoggingUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) (err error) {
	start := d.now()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Unit of work panic recovered", "panic", r)
			panic(r)
		}
	}()

	err = d.inner.Do(ctx, fn)
	elapsed := d.now().Sub(start)
	switch {
	case err == nil:
		d.logger.Debug("Unit of work committed", "duration", elapsed)
	case domain.IsBusinessError(err):
		d.logger.Debug("Unit of work rolled back", "duration", elapsed, "error", err)
	default:
		d.logger.Error("Unit of work failed", "duration", elapsed, "error", err)
	}
	return err
}

// AccountRepository delegates to the wrapped unit of work.
func (d *LoggingUnitOfWork) AccountRepository() (repository.AccountRepository, error) {
	return d.inner.AccountRepository()
}

// TransactionRepository delegates to the wrapped unit of work.
func (d *LoggingUnitOfWork) TransactionRepository() (repository.TransactionRepository, error) {
	return d.inner.TransactionRepository()
}

var _ repository.UnitOfWork = (*LoggingUnitOfWork)(nil)
