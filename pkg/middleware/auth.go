// Package middleware holds the fiber middleware shared by the HTTP routes:
// JWT authentication, role checks and idempotent replay.
package middleware

import (
	"errors"
	"slices"

	"github.com/amirasaad/backoffice/pkg/domain"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Role is the back office role carried in the token.
type Role string

// Roles.
const (
	RoleClient       Role = "client"
	RoleAgent        Role = "agent"
	RoleDistributeur Role = "distributeur"
)

const actorKey = "actor"

// Actor is the authenticated caller of a request.
type Actor struct {
	Ref           string
	Role          Role
	AccountNumber string
}

// Owns reports whether the actor is the owner of the account.
func (a Actor) Owns(number string) bool {
	return a.AccountNumber != "" && a.AccountNumber == number
}

// Protected verifies the HS256 bearer token signed with secret and stores the
// resolved Actor in the request locals.
func Protected(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		ErrorHandler:   jwtError,
		SuccessHandler: storeActor,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return problem(c, fiber.StatusBadRequest, "Missing or malformed JWT", err.Error())
	}
	return problem(c, fiber.StatusUnauthorized, "Invalid or expired JWT", err.Error())
}

func storeActor(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return problem(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
	}
	actor, err := ActorFromToken(token)
	if err != nil {
		return problem(c, fiber.StatusUnauthorized, "Unauthorized", err.Error())
	}
	c.Locals(actorKey, actor)
	return c.Next()
}

// ActorFromToken reads the sub, role and account_number claims.
func ActorFromToken(token *jwt.Token) (Actor, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, domain.ErrUnauthorized
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return Actor{}, domain.ErrUnauthorized
	}
	switch Role(role) {
	case RoleClient, RoleAgent, RoleDistributeur:
	default:
		return Actor{}, domain.ErrUnauthorized
	}
	number, _ := claims["account_number"].(string)
	return Actor{Ref: sub, Role: Role(role), AccountNumber: number}, nil
}

// ActorFromCtx returns the actor stored by Protected.
func ActorFromCtx(c *fiber.Ctx) (Actor, bool) {
	a, ok := c.Locals(actorKey).(Actor)
	return a, ok
}

// WithActor stores actor in the request locals. Used by tests and by
// trusted internal callers.
func WithActor(c *fiber.Ctx, actor Actor) {
	c.Locals(actorKey, actor)
}

// RequireRole rejects requests whose actor holds none of roles.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromCtx(c)
		if !ok {
			return problem(c, fiber.StatusUnauthorized, "Unauthorized", "missing user context")
		}
		if !slices.Contains(roles, actor.Role) {
			return problem(c, fiber.StatusForbidden, "Forbidden", "role "+string(actor.Role)+" may not perform this operation")
		}
		return c.Next()
	}
}

type problemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(problemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.OriginalURL(),
	}, "application/problem+json")
}
