// Package handler holds the event handlers registered on the event bus.
package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
)

// Audit returns a handler that writes one structured audit record per ledger
// event.
func Audit(logger *slog.Logger) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "audit")
	return func(ctx context.Context, e events.Event) error {
		switch evt := e.(type) {
		case *events.TransactionRecorded:
			logger.InfoContext(ctx, "transaction recorded",
				"event_id", evt.ID,
				"transaction_id", evt.TransactionID,
				"kind", evt.Kind,
				"source", evt.Source,
				"dest", evt.Dest,
				"amount", evt.Amount,
				"balance", evt.Balance,
				"initiator", evt.Initiator,
				"at", evt.Timestamp,
			)
		case *events.TransactionCancelled:
			logger.InfoContext(ctx, "transaction cancelled",
				"event_id", evt.ID,
				"transaction_id", evt.TransactionID,
				"kind", evt.Kind,
				"account", evt.Account,
				"direction", evt.Direction,
				"amount", evt.Amount,
				"balance", evt.Balance,
				"cancelled_by", evt.CancelledBy,
				"reason", evt.Reason,
				"at", evt.Timestamp,
			)
		case *events.AccountOpened:
			logger.InfoContext(ctx, "account opened",
				"event_id", evt.ID,
				"number", evt.Number,
				"owner_ref", evt.OwnerRef,
				"at", evt.Timestamp,
			)
		default:
			return fmt.Errorf("audit: unexpected event %T", e)
		}
		return nil
	}
}

// RegisterAudit subscribes the audit handler to every ledger event type.
// Redelivered events are recorded once.
func RegisterAudit(bus eventbus.Bus, logger *slog.Logger) {
	tracker := NewIdempotencyTracker()
	h := WithIdempotency(Audit(logger), tracker, EventID, "audit", logger)
	for _, t := range []events.EventType{
		events.EventTypeTransactionRecorded,
		events.EventTypeTransactionCancelled,
		events.EventTypeAccountOpened,
	} {
		bus.Register(t, h)
	}
}
