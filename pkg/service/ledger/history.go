package ledger

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/repository"
)

// History returns the newest-first transactions touching number, or every
// transaction when number is AllAccounts. A non-positive limit selects the
// default for the scope and any limit is clamped to the operator cap.
func (s *Service) History(ctx context.Context, number string, limit int) ([]*account.Transaction, error) {
	limit = s.clampLimit(number, limit)
	logger := s.logger.With("op", "history", "account", number, "limit", limit)

	var (
		txRepo repository.TransactionRepository
		out    []*account.Transaction
		err    error
	)
	if txRepo, err = s.uow.TransactionRepository(); err != nil {
		logger.Error("History failed: TransactionRepository error", "error", err)
		return nil, err
	}
	if number == AllAccounts {
		out, err = txRepo.List(ctx, limit)
	} else {
		out, err = txRepo.ListByAccount(ctx, number, limit)
	}
	if err != nil {
		if domain.IsBusinessError(err) {
			logger.Warn("History rejected", "error", err)
		} else {
			logger.Error("History failed: list error", "error", err)
		}
		return nil, err
	}
	logger.Debug("History successful", "count", len(out))
	return out, nil
}

func (s *Service) clampLimit(number string, limit int) int {
	if limit <= 0 {
		if number == AllAccounts {
			return s.cfg.OperatorHistoryLimit
		}
		return s.cfg.HistoryLimit
	}
	if s.cfg.OperatorHistoryLimit > 0 && limit > s.cfg.OperatorHistoryLimit {
		return s.cfg.OperatorHistoryLimit
	}
	return limit
}
