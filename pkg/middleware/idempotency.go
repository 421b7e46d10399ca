package middleware

import (
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/singleflight"
)

// Idempotency headers.
const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderIdempotencyHit = "X-Idempotency-Hit"
)

// maxKeyLength bounds client-supplied keys.
const maxKeyLength = 255

// IdempotencyConfig configures the Idempotency middleware.
type IdempotencyConfig struct {
	Cache  cache.ResponseCache
	TTL    time.Duration
	Logger *slog.Logger
}

// Idempotency replays the stored response of a request that repeats an
// Idempotency-Key. Concurrent requests with the same key run the handler once.
// Requests without the header, or any request when no cache is configured,
// pass through. Only 2xx and 4xx responses are stored so that transient
// failures can be retried.
func Idempotency(cfg IdempotencyConfig) fiber.Handler {
	if cfg.Cache == nil {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	var group singleflight.Group

	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderIdempotencyKey)
		if key == "" {
			return c.Next()
		}
		if len(key) > maxKeyLength {
			return problem(c, fiber.StatusBadRequest, "Invalid Idempotency-Key", "key is too long")
		}
		// Keys are scoped to the caller and the route.
		scoped := c.Method() + " " + c.Path() + " " + key
		if actor, ok := ActorFromCtx(c); ok {
			scoped = actor.Ref + " " + scoped
		}
		logger := cfg.Logger.With("idempotency_key", key, "path", c.Path())
		ctx := c.UserContext()

		if cached, err := cfg.Cache.Get(ctx, scoped); err != nil {
			logger.Warn("idempotency lookup failed", "error", err)
		} else if cached != nil {
			return replay(c, cached)
		}

		executed := false
		v, err, _ := group.Do(scoped, func() (any, error) {
			// A previous leader may have finished since the lookup above.
			if cached, err := cfg.Cache.Get(ctx, scoped); err == nil && cached != nil {
				return cached, nil
			}
			executed = true
			if err := c.Next(); err != nil {
				return nil, err
			}
			resp := &cache.CachedResponse{
				Status:      c.Response().StatusCode(),
				ContentType: string(c.Response().Header.ContentType()),
				Body:        append([]byte(nil), c.Response().Body()...),
				StoredAt:    time.Now().UTC(),
			}
			if resp.Status < fiber.StatusInternalServerError {
				if err := cfg.Cache.Set(ctx, scoped, resp, cfg.TTL); err != nil {
					logger.Warn("idempotency store failed", "error", err)
				}
			}
			return resp, nil
		})
		if err != nil {
			return err
		}
		if executed {
			return nil
		}
		logger.Debug("duplicate request collapsed")
		return replay(c, v.(*cache.CachedResponse))
	}
}

func replay(c *fiber.Ctx, resp *cache.CachedResponse) error {
	c.Set(HeaderIdempotencyHit, "true")
	if resp.ContentType != "" {
		c.Set(fiber.HeaderContentType, resp.ContentType)
	}
	return c.Status(resp.Status).Send(resp.Body)
}
