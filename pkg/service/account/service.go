// Package account provides account provisioning and read access for the back
// office. Balances are never written here; see the ledger service.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/google/uuid"
)

// maxNumberAttempts bounds the retries on account number collisions.
const maxNumberAttempts = 5

// ErrNumberExhausted is returned when no free account number was found.
var ErrNumberExhausted = errors.New("could not allocate a unique account number")

// Service provides account provisioning and lookups.
type Service struct {
	uow     repository.UnitOfWork
	bus     eventbus.Bus
	logger  *slog.Logger
	numbers NumberGenerator
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithNumberGenerator replaces the account number generator.
func WithNumberGenerator(g NumberGenerator) Option {
	return func(s *Service) { s.numbers = g }
}

// NewService creates a new Service. A nil bus disables event publication.
func NewService(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	logger *slog.Logger,
	prefix string,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		uow:     uow,
		bus:     bus,
		logger:  logger.With("service", "account"),
		numbers: NewNumberGenerator(prefix),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open provisions the single account of ownerRef with a zero balance.
// Returns domain.ErrAlreadyExists when the owner already has one.
func (s *Service) Open(ctx context.Context, ownerRef string) (a *account.Account, err error) {
	logger := s.logger.With("owner_ref", ownerRef)
	logger.Info("Open started")

	repo, err := s.uow.AccountRepository()
	if err != nil {
		logger.Error("Open failed: AccountRepository error", "error", err)
		return nil, err
	}
	if _, err = repo.GetByOwner(ctx, ownerRef); err == nil {
		logger.Warn("Open failed: owner already has an account")
		return nil, domain.ErrAlreadyExists
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		logger.Error("Open failed: owner lookup", "error", err)
		return nil, err
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		now := s.now().UTC()
		a, err = account.New().
			WithNumber(s.numbers.Next(now)).
			WithOwnerRef(ownerRef).
			WithCreatedAt(now).
			WithUpdatedAt(now).
			Build()
		if err != nil {
			logger.Warn("Open failed: domain error", "error", err)
			return nil, err
		}
		err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
			repo, err := uow.AccountRepository()
			if err != nil {
				return err
			}
			return repo.Create(ctx, a)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrAlreadyExists) {
			logger.Error("Open failed: create", "error", err)
			return nil, err
		}
		// The owner may have been provisioned concurrently.
		if _, lookupErr := repo.GetByOwner(ctx, ownerRef); lookupErr == nil {
			logger.Warn("Open failed: owner provisioned concurrently")
			return nil, domain.ErrAlreadyExists
		}
		logger.Debug("account number collision", "number", a.Number, "attempt", attempt)
	}
	if err != nil {
		logger.Error("Open failed: number allocation", "attempts", maxNumberAttempts)
		return nil, ErrNumberExhausted
	}

	logger.Info("Open successful", "number", a.Number)
	if s.bus != nil {
		evt := &events.AccountOpened{ID: uuid.New(), Number: a.Number, OwnerRef: a.OwnerRef, Timestamp: a.CreatedAt}
		if emitErr := s.bus.Emit(ctx, evt); emitErr != nil {
			logger.Warn("event publication failed", "type", evt.Type(), "error", emitErr)
		}
	}
	return a, nil
}

// Get returns the account with the given number.
func (s *Service) Get(ctx context.Context, number string) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	a, err := repo.Get(ctx, number)
	if err != nil {
		s.logger.Debug("Get failed", "number", number, "error", err)
		return nil, err
	}
	return a, nil
}

// GetByOwner returns the account owned by ownerRef.
func (s *Service) GetByOwner(ctx context.Context, ownerRef string) (*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.GetByOwner(ctx, ownerRef)
}

// Balance returns the current balance of the account in minor units.
func (s *Service) Balance(ctx context.Context, number string) (int64, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return 0, err
	}
	return repo.Balance(ctx, number)
}

// List returns every account, oldest first.
func (s *Service) List(ctx context.Context) ([]*account.Account, error) {
	repo, err := s.uow.AccountRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx)
}
