package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	infracache "github.com/amirasaad/backoffice/infra/cache"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idempotentApp(t *testing.T, status int, delay time.Duration) (*fiber.App, *atomic.Int64) {
	t.Helper()
	store := infracache.NewMemoryCache(0)
	t.Cleanup(store.Close)
	var calls atomic.Int64
	app := fiber.New()
	app.Post("/deposit", Idempotency(IdempotencyConfig{Cache: store, TTL: time.Minute}), func(c *fiber.Ctx) error {
		n := calls.Add(1)
		time.Sleep(delay)
		return c.Status(status).JSON(fiber.Map{"call": n})
	})
	return app, &calls
}

func post(t *testing.T, app *fiber.App, key string) (*http.Response, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/deposit", strings.NewReader(`{}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(body)
}

func TestIdempotency_Replay(t *testing.T) {
	app, calls := idempotentApp(t, fiber.StatusCreated, 0)

	first, body1 := post(t, app, "k-1")
	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	assert.Empty(t, first.Header.Get(HeaderIdempotencyHit))

	second, body2 := post(t, app, "k-1")
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(HeaderIdempotencyHit))
	assert.JSONEq(t, body1, body2)
	assert.Equal(t, int64(1), calls.Load())

	_, _ = post(t, app, "k-2")
	assert.Equal(t, int64(2), calls.Load())
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	app, calls := idempotentApp(t, fiber.StatusCreated, 0)
	for range 3 {
		resp, _ := post(t, app, "")
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
	assert.Equal(t, int64(3), calls.Load())
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	app, calls := idempotentApp(t, fiber.StatusInternalServerError, 0)
	_, _ = post(t, app, "k")
	_, _ = post(t, app, "k")
	assert.Equal(t, int64(2), calls.Load())
}

func TestIdempotency_ConcurrentDuplicates(t *testing.T) {
	app, calls := idempotentApp(t, fiber.StatusCreated, 50*time.Millisecond)

	var wg sync.WaitGroup
	bodies := make([]string, 6)
	for i := range bodies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, body := post(t, app, "same")
			assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
			bodies[i] = body
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
	for _, b := range bodies {
		assert.JSONEq(t, `{"call":1}`, b)
	}
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	app, calls := idempotentApp(t, fiber.StatusCreated, 0)
	resp, _ := post(t, app, strings.Repeat("x", maxKeyLength+1))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, calls.Load())
}
