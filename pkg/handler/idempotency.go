package handler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"golang.org/x/sync/singleflight"
)

// KeyExtractor extracts an idempotency key from an event
type KeyExtractor func(events.Event) string

// IdempotencyTracker tracks processed events by key
type IdempotencyTracker struct {
	processed sync.Map
	inflight  singleflight.Group
}

// NewIdempotencyTracker creates a new idempotency tracker
func NewIdempotencyTracker() *IdempotencyTracker {
	return &IdempotencyTracker{}
}

// Seen reports whether key was processed.
func (t *IdempotencyTracker) Seen(key string) bool {
	_, ok := t.processed.Load(key)
	return ok
}

// EventID is the KeyExtractor for ledger events: stream-backed buses deliver
// at least once and redeliver the same event id.
func EventID(e events.Event) string {
	switch evt := e.(type) {
	case *events.TransactionRecorded:
		return evt.ID.String()
	case *events.TransactionCancelled:
		return evt.ID.String()
	case *events.AccountOpened:
		return evt.ID.String()
	default:
		return ""
	}
}

// WithIdempotency wraps a handler so that each key is handled successfully at
// most once. Concurrent deliveries of one key share a single attempt.
func WithIdempotency(
	handler eventbus.HandlerFunc,
	tracker *IdempotencyTracker,
	keyExtractor KeyExtractor,
	handlerName string,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		key := keyExtractor(e)
		if key == "" {
			return handler(ctx, e)
		}

		log := logger.With(
			"handler", handlerName,
			"event_type", e.Type(),
			"idempotency_key", key,
		)

		if tracker.Seen(key) {
			log.Info("event already processed")
			return nil
		}

		_, err, _ := tracker.inflight.Do(key, func() (any, error) {
			if tracker.Seen(key) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.processed.Store(key, struct{}{})
			return nil, nil
		})
		return err
	}
}
