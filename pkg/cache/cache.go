// Package cache defines the stores used to replay idempotent responses.
package cache

import (
	"context"
	"time"
)

// CachedResponse is a stored HTTP response replayed for a repeated
// Idempotency-Key.
type CachedResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	StoredAt    time.Time `json:"stored_at"`
}

// ResponseCache stores responses by idempotency key. Get returns (nil, nil)
// on a miss.
type ResponseCache interface {
	Get(ctx context.Context, key string) (*CachedResponse, error)
	Set(ctx context.Context, key string, resp *CachedResponse, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
