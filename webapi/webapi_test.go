package webapi_test

import (
	"testing"
	"time"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestRateLimit(t *testing.T) {
	cfg := testutils.Config()
	cfg.RateLimit = &config.RateLimit{MaxRequests: 5, Window: time.Minute}
	env := testutils.NewEnv(t, cfg)

	for i := range 6 {
		resp := testutils.MakeRequestWithApp(env.App, fiber.MethodGet, "/", "", "", "X-Forwarded-For", "10.0.0.1, 10.0.0.2")
		_ = resp.Body.Close()
		if i < 5 {
			assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i+1)
		} else {
			assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode, "request %d", i+1)
		}
	}

	// Limits are tracked per client address.
	resp := testutils.MakeRequestWithApp(env.App, fiber.MethodGet, "/", "", "", "X-Forwarded-For", "10.0.0.9")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
