// Package account exposes account provisioning and lookups over HTTP.
package account

import (
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/dto"
	"github.com/amirasaad/backoffice/pkg/middleware"
	accountsvc "github.com/amirasaad/backoffice/pkg/service/account"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the account endpoints. Every route requires a valid token.
//
// Routes:
//   - GET  /accounts                          : agent
//   - POST /accounts                          : agent
//   - GET  /accounts/:account_number          : agent, or the account owner
//   - GET  /accounts/:account_number/balance  : agent, or the account owner
func Routes(
	app *fiber.App,
	accountSvc *accountsvc.Service,
	cur dto.Currency,
	protected fiber.Handler,
	idempotent fiber.Handler,
) {
	g := app.Group("/accounts", protected)
	g.Get("/", middleware.RequireRole(middleware.RoleAgent), List(accountSvc, cur))
	g.Post("/", middleware.RequireRole(middleware.RoleAgent), idempotent, Open(accountSvc, cur))
	g.Get("/:account_number", ownerOrAgent, Get(accountSvc, cur))
	g.Get("/:account_number/balance", ownerOrAgent, Balance(accountSvc, cur))
}

func ownerOrAgent(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFromCtx(c)
	if !ok {
		return common.ProblemDetailsJSON(c, "Unauthorized", domain.ErrUnauthorized)
	}
	if actor.Role != middleware.RoleAgent && !actor.Owns(c.Params("account_number")) {
		return common.ProblemDetailsJSON(c, "Forbidden", domain.ErrForbidden)
	}
	return c.Next()
}

// Open provisions the account of a new owner.
func Open(accountSvc *accountsvc.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[dto.AccountCreate](c)
		if input == nil {
			return err
		}
		a, err := accountSvc.Open(c.UserContext(), input.OwnerRef)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Account created", dto.ToAccountRead(a, cur))
	}
}

// List returns every account.
func List(accountSvc *accountsvc.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accs, err := accountSvc.List(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list accounts", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Accounts fetched", dto.ToAccountReads(accs, cur))
	}
}

// Get returns one account.
func Get(accountSvc *accountsvc.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := accountSvc.Get(c.UserContext(), c.Params("account_number"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch account", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Account fetched", dto.ToAccountRead(a, cur))
	}
}

// Balance returns the current balance of one account.
func Balance(accountSvc *accountsvc.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		number := c.Params("account_number")
		bal, err := accountSvc.Balance(c.UserContext(), number)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch balance", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Balance fetched",
			dto.BalanceRead{Number: number, Balance: cur.NewAmount(bal)})
	}
}
