package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/amirasaad/backoffice/pkg/domain/events"
	"github.com/amirasaad/backoffice/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	env, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}
	return env, nil
}

func decodeEnvelope(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	constructor, ok := events.EventTypes[events.EventType(env.Type)]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return evt, nil
}

// runHandlers calls every handler, recovering panics, and reports whether all
// of them succeeded.
func runHandlers(ctx context.Context, logger *slog.Logger, evt events.Event, handlers []eventbus.HandlerFunc) bool {
	ok := true
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic recovered", "panic", r, "event_type", evt.Type())
					ok = false
				}
			}()
			if err := h(ctx, evt); err != nil {
				logger.Error("handler error", "error", err, "event_type", evt.Type())
				ok = false
			}
		}()
	}
	return ok
}
