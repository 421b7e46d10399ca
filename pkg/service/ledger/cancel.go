package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/google/uuid"
)

// Cancel reverses the balance effect of a validated transaction against the
// account's current balance and marks it cancelled, in one unit of work.
//
// A malformed id is reported as domain.ErrTransactionNotFound. Reversing a
// deposit whose funds were already spent fails with
// domain.ErrReversalInsufficientFunds and changes nothing.
func (s *Service) Cancel(
	ctx context.Context,
	transactionID string,
	actor string,
	reason string,
) (res *Result, err error) {
	logger := s.logger.With("op", "cancel", "transaction_id", transactionID, "actor", actor)
	logger.Info("Cancel started")

	id, err := uuid.Parse(transactionID)
	if err != nil {
		logger.Warn("Cancel failed: malformed id", "error", err)
		return nil, domain.ErrTransactionNotFound
	}

	var rev account.Reversal
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accRepo, txRepo, err := repos(uow)
		if err != nil {
			return err
		}
		tx, err := txRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Cancel(actor, reason, s.now()); err != nil {
			return err
		}
		rev, err = tx.Reversal()
		if err != nil {
			return err
		}

		var balance int64
		switch rev.Direction {
		case account.Debit:
			balance, err = accRepo.Debit(ctx, rev.Account, rev.Amount)
			if errors.Is(err, domain.ErrInsufficientFunds) {
				return fmt.Errorf("%w: balance of %s is below %d", domain.ErrReversalInsufficientFunds, rev.Account, rev.Amount)
			}
		case account.Credit:
			balance, err = accRepo.Credit(ctx, rev.Account, rev.Amount)
		}
		if err != nil {
			return fmt.Errorf("reverse %s on %s: %w", rev.Direction, rev.Account, err)
		}

		if err := txRepo.MarkCancelled(ctx, tx); err != nil {
			return err
		}
		res = &Result{Transaction: tx, Balance: balance}
		return nil
	})
	if err != nil {
		res = nil
		logFailure(logger, "Cancel", err)
		return
	}

	logger.Info("Cancel successful",
		"account", rev.Account,
		"direction", rev.Direction.String(),
		"amount", rev.Amount,
		"balance", res.Balance,
	)
	s.emit(ctx, events.NewTransactionCancelled(res.Transaction, rev, res.Balance))
	return
}
