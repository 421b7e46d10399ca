package ledger

import (
	"context"
	"fmt"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/repository"
)

// Deposit credits dest and records a validated deposit in one unit of work.
func (s *Service) Deposit(
	ctx context.Context,
	dest string,
	amount int64,
	initiator string,
) (res *Result, err error) {
	logger := s.logger.With("op", "deposit", "account", dest, "amount", amount, "initiator", initiator)
	logger.Info("Deposit started")

	if err = account.ValidateAmount(amount, s.cfg.MinAmount); err != nil {
		logger.Warn("Deposit failed: invalid amount", "error", err)
		return nil, err
	}
	tx, err := account.NewDeposit(dest, amount, initiator, s.now())
	if err != nil {
		logger.Warn("Deposit failed: domain error", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accRepo, txRepo, err := repos(uow)
		if err != nil {
			return err
		}
		balance, err := accRepo.Credit(ctx, dest, amount)
		if err != nil {
			return fmt.Errorf("credit %s: %w", dest, err)
		}
		// Stamped under the row lock so log order follows commit order.
		tx.CreatedAt = s.now().UTC()
		if err := txRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("record deposit: %w", err)
		}
		res = &Result{Transaction: tx, Balance: balance}
		return nil
	})
	if err != nil {
		res = nil
		logFailure(logger, "Deposit", err)
		return
	}

	logger.Info("Deposit successful", "transaction_id", tx.ID, "balance", res.Balance)
	s.emit(ctx, events.NewTransactionRecorded(tx, res.Balance))
	return
}

// Withdraw debits source and records a validated withdrawal in one unit of
// work. An insufficient balance leaves both the account and the log untouched.
func (s *Service) Withdraw(
	ctx context.Context,
	source string,
	amount int64,
	initiator string,
) (res *Result, err error) {
	logger := s.logger.With("op", "withdraw", "account", source, "amount", amount, "initiator", initiator)
	logger.Info("Withdraw started")

	if err = account.ValidateAmount(amount, s.cfg.MinAmount); err != nil {
		logger.Warn("Withdraw failed: invalid amount", "error", err)
		return nil, err
	}
	tx, err := account.NewWithdrawal(source, amount, initiator, s.now())
	if err != nil {
		logger.Warn("Withdraw failed: domain error", "error", err)
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		accRepo, txRepo, err := repos(uow)
		if err != nil {
			return err
		}
		balance, err := accRepo.Debit(ctx, source, amount)
		if err != nil {
			return fmt.Errorf("debit %s: %w", source, err)
		}
		tx.CreatedAt = s.now().UTC()
		if err := txRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("record withdrawal: %w", err)
		}
		res = &Result{Transaction: tx, Balance: balance}
		return nil
	})
	if err != nil {
		res = nil
		logFailure(logger, "Withdraw", err)
		return
	}

	logger.Info("Withdraw successful", "transaction_id", tx.ID, "balance", res.Balance)
	s.emit(ctx, events.NewTransactionRecorded(tx, res.Balance))
	return
}

// Transfer is not supported by the ledger.
func (s *Service) Transfer(
	_ context.Context,
	source, dest string,
	amount int64,
	initiator string,
) (*Result, error) {
	s.logger.Info("Transfer rejected", "source", source, "dest", dest, "amount", amount, "initiator", initiator)
	return nil, fmt.Errorf("%w: transfers are not implemented", domain.ErrUnsupportedOperation)
}
