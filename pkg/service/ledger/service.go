// Package ledger holds the balance-mutating operations of the back office:
// deposits, withdrawals and cancellations, plus transaction history.
//
// Every mutation runs inside one repository.UnitOfWork: the balance change and
// the transaction log write commit together or not at all. Events are emitted
// only after the unit commits.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"github.com/amirasaad/backoffice/pkg/repository"
)

// AllAccounts selects the global history instead of a single account.
const AllAccounts = "all"

// Service implements the ledger and reversal operations.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
	cfg    config.Ledger
	now    func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to stamp transactions.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// DefaultConfig returns the ledger parameters used when none are configured.
func DefaultConfig() config.Ledger {
	return config.Ledger{
		MinAmount:            100,
		HistoryLimit:         50,
		OperatorHistoryLimit: 200,
		Currency:             "XAF",
		AccountPrefix:        "CM",
	}
}

// New creates a ledger Service. A nil cfg uses DefaultConfig and a nil bus
// disables event publication.
func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	logger *slog.Logger,
	cfg *config.Ledger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	s := &Service{
		uow:    uow,
		bus:    bus,
		logger: logger.With("service", "ledger"),
		cfg:    c,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is the outcome of a committed mutation: the transaction as stored
// and the balance of the affected account right after it.
type Result struct {
	Transaction *account.Transaction
	Balance     int64
}

// emit publishes evt after commit. Publication failures are logged and never
// undo the committed unit.
func (s *Service) emit(ctx context.Context, evt events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		s.logger.Warn("event publication failed", "type", evt.Type(), "error", err)
	}
}

// logFailure logs a failed unit of work. Expected rejections are warnings;
// everything else is an error.
func logFailure(logger *slog.Logger, op string, err error) {
	if domain.IsBusinessError(err) {
		logger.Warn(op+" rejected", "error", err)
		return
	}
	logger.Error(op+" failed: unit of work", "error", err)
}

// repos returns both repositories of a unit of work.
func repos(uow repository.UnitOfWork) (repository.AccountRepository, repository.TransactionRepository, error) {
	accRepo, err := uow.AccountRepository()
	if err != nil {
		return nil, nil, err
	}
	txRepo, err := uow.TransactionRepository()
	if err != nil {
		return nil, nil, err
	}
	return accRepo, txRepo, nil
}
