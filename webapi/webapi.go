// Package webapi provides the HTTP adapter of the back office.
// It is organized into sub-packages for different domains:
// - account: account provisioning and lookups
// - transaction: deposits, withdrawals, cancellations and history
package webapi

import (
	"errors"
	"strings"
	"time"

	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/middleware"
	accountweb "github.com/amirasaad/backoffice/webapi/account"
	"github.com/amirasaad/backoffice/webapi/common"
	transactionweb "github.com/amirasaad/backoffice/webapi/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Configure rate limiting middleware
	// Uses X-Forwarded-For header when behind a proxy
	// Falls back to X-Real-IP or direct IP if needed
	if cfg.RateLimit != nil && cfg.RateLimit.MaxRequests > 0 {
		fiberApp.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit.MaxRequests,
			Expiration: cfg.RateLimit.Window,
			KeyGenerator: func(c *fiber.Ctx) string {
				if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
					// Take the first IP in the chain
					if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
						return strings.TrimSpace(forwardedFor[:commaIndex])
					}
					return strings.TrimSpace(forwardedFor)
				}
				if realIP := c.Get("X-Real-IP"); realIP != "" {
					return realIP
				}
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return common.ProblemDetailsJSON(
					c,
					"Too Many Requests",
					errors.New("rate limit exceeded"),
					fiber.StatusTooManyRequests,
				)
			},
		}))
	}
	fiberApp.Use(recover.New())
	fiberApp.Use(logger.New())

	// Health check endpoint
	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("Back office API is running")
		},
	)

	secret := ""
	if cfg.Auth != nil && cfg.Auth.Jwt != nil {
		secret = cfg.Auth.Jwt.Secret
	}
	protected := middleware.Protected(secret)

	ttl := 24 * time.Hour
	if cfg.Idempotency != nil {
		ttl = cfg.Idempotency.TTL
	}
	idempotent := middleware.Idempotency(middleware.IdempotencyConfig{
		Cache:  a.Deps.ResponseCache,
		TTL:    ttl,
		Logger: a.Deps.Logger,
	})

	cur := a.Currency()
	accountweb.Routes(fiberApp, a.AccountService, cur, protected, idempotent)
	transactionweb.Routes(fiberApp, a.LedgerService, cur, protected, idempotent)
	return fiberApp
}
