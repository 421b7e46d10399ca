// Package testutils builds a fully wired HTTP app over the in-memory store
// for handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infracache "github.com/amirasaad/backoffice/infra/cache"
	"github.com/amirasaad/backoffice/infra/eventbus"
	"github.com/amirasaad/backoffice/infra/repository/memory"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/service/ledger"
	"github.com/amirasaad/backoffice/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Secret signs the tokens of test actors.
const Secret = "webapi-test-secret"

// Env is a wired app over a fresh in-memory store.
type Env struct {
	App   *fiber.App
	Core  *app.App
	Store *memory.Store
	Bus   *eventbus.MemoryEventBus
}

// Config returns the configuration used by NewEnv.
func Config() *config.App {
	ledgerCfg := ledger.DefaultConfig()
	return &config.App{
		Env:         "test",
		Auth:        &config.Auth{Jwt: &config.Jwt{Secret: Secret, Expiry: time.Hour}},
		Ledger:      &ledgerCfg,
		Idempotency: &config.Idempotency{TTL: time.Hour},
		RateLimit:   &config.RateLimit{MaxRequests: 0},
	}
}

// NewEnv wires an app using cfg, or Config() when cfg is nil.
func NewEnv(t *testing.T, cfg *config.App) *Env {
	t.Helper()
	if cfg == nil {
		cfg = Config()
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	bus := eventbus.NewWithMemory(logger)
	respCache := infracache.NewMemoryCache(0)
	t.Cleanup(respCache.Close)

	core := app.New(&app.Deps{
		Uow:           memory.NewUoW(store),
		EventBus:      bus,
		ResponseCache: respCache,
		Logger:        logger,
	}, cfg)
	return &Env{App: webapi.SetupApp(core), Core: core, Store: store, Bus: bus}
}

// SeedAccount creates an account directly in the store.
func (e *Env) SeedAccount(t *testing.T, number, owner string, balance int64) {
	t.Helper()
	acc, err := account.New().WithNumber(number).WithOwnerRef(owner).WithBalance(balance).Build()
	require.NoError(t, err)
	repo, err := memory.NewUoW(e.Store).AccountRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), acc))
}

// Token signs a token for the given actor.
func Token(t *testing.T, sub, role, accountNumber string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  sub,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	if accountNumber != "" {
		claims["account_number"] = accountNumber
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	require.NoError(t, err)
	return token
}

// MakeRequestWithApp performs a request with an optional JSON body and bearer
// token. Extra headers are given as key, value pairs.
func MakeRequestWithApp(app *fiber.App, method, path, body, token string, headers ...string) *http.Response {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// Decode reads a JSON response body into v and closes it.
func Decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close() //nolint: errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// Envelope is the success response with typed data.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}
