package eventbus

import (
	"context"

	"github.com/amirasaad/backoffice/pkg/domain/events"
)

// HandlerFunc handles a single event.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus publishes events and dispatches them to registered handlers.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}
