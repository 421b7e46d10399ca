package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedApp(handlers ...fiber.Handler) *fiber.App {
	app := fiber.New()
	chain := append([]fiber.Handler{Protected(testSecret)}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		actor, _ := ActorFromCtx(c)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ref": actor.Ref, "role": actor.Role})
	})
	app.Get("/", chain...)
	return app
}

func get(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestProtected_Unauthorized(t *testing.T) {
	app := protectedApp()
	resp := get(t, app, "")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestProtected(t *testing.T) {
	tests := []struct {
		name   string
		token  func(t *testing.T) string
		status int
	}{
		{"valid agent", func(t *testing.T) string {
			return signToken(t, testSecret, jwt.MapClaims{"sub": "agent-1", "role": "agent"})
		}, fiber.StatusOK},
		{"wrong secret", func(t *testing.T) string {
			return signToken(t, "other", jwt.MapClaims{"sub": "agent-1", "role": "agent"})
		}, fiber.StatusUnauthorized},
		{"expired", func(t *testing.T) string {
			return signToken(t, testSecret, jwt.MapClaims{"sub": "a", "role": "agent", "exp": time.Now().Add(-time.Minute).Unix()})
		}, fiber.StatusUnauthorized},
		{"unknown role", func(t *testing.T) string {
			return signToken(t, testSecret, jwt.MapClaims{"sub": "a", "role": "root"})
		}, fiber.StatusUnauthorized},
		{"missing subject", func(t *testing.T) string {
			return signToken(t, testSecret, jwt.MapClaims{"role": "agent"})
		}, fiber.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, protectedApp(), tt.token(t))
			defer resp.Body.Close() //nolint: errcheck
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequireRole(t *testing.T) {
	app := protectedApp(RequireRole(RoleAgent, RoleDistributeur))

	resp := get(t, app, signToken(t, testSecret, jwt.MapClaims{"sub": "d", "role": "distributeur"}))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = get(t, app, signToken(t, testSecret, jwt.MapClaims{"sub": "c", "role": "client", "account_number": "CM-1"}))
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestActorFromToken(t *testing.T) {
	token := &jwt.Token{Claims: jwt.MapClaims{"sub": "c-9", "role": "client", "account_number": "CM-0001-000001"}}
	actor, err := ActorFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, Actor{Ref: "c-9", Role: RoleClient, AccountNumber: "CM-0001-000001"}, actor)
	assert.True(t, actor.Owns("CM-0001-000001"))
	assert.False(t, actor.Owns("CM-0002-000002"))
	assert.False(t, Actor{}.Owns(""))
}

func TestJwtError_Malformed(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		return jwtError(c, jwtware.ErrJWTMissingOrMalformed)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("expected %d, got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestJwtError_Invalid(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		return jwtError(c, errors.New("any other error"))
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("expected %d, got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}
