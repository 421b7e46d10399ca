// Package transaction exposes the ledger operations over HTTP.
package transaction

import (
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/dto"
	"github.com/amirasaad/backoffice/pkg/middleware"
	"github.com/amirasaad/backoffice/pkg/service/ledger"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the ledger endpoints. Every route requires a valid token.
//
// Routes:
//   - POST /transactions/deposit                    : agent, distributeur
//   - POST /transactions/withdraw                   : distributeur
//   - POST /transactions/transfer                   : any role, always 501
//   - POST /transactions/:id/cancel                 : agent
//   - GET  /transactions/history/:account_number    : agent, or the account owner
//   - GET  /transactions                            : agent
func Routes(
	app *fiber.App,
	ledgerSvc *ledger.Service,
	cur dto.Currency,
	protected fiber.Handler,
	idempotent fiber.Handler,
) {
	g := app.Group("/transactions", protected)
	g.Post("/deposit",
		middleware.RequireRole(middleware.RoleAgent, middleware.RoleDistributeur),
		idempotent, Deposit(ledgerSvc, cur))
	g.Post("/withdraw",
		middleware.RequireRole(middleware.RoleDistributeur),
		idempotent, Withdraw(ledgerSvc, cur))
	g.Post("/transfer", Transfer(ledgerSvc))
	g.Post("/:id/cancel",
		middleware.RequireRole(middleware.RoleAgent),
		idempotent, Cancel(ledgerSvc, cur))
	g.Get("/history/:account_number", History(ledgerSvc, cur))
	g.Get("/",
		middleware.RequireRole(middleware.RoleAgent),
		ListAll(ledgerSvc, cur))
}

func result(res *ledger.Result, cur dto.Currency) dto.LedgerResult {
	return dto.LedgerResult{
		Transaction: dto.ToTransactionRead(res.Transaction, cur),
		Balance:     cur.NewAmount(res.Balance),
	}
}

// Deposit credits an account.
func Deposit(ledgerSvc *ledger.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, _ := middleware.ActorFromCtx(c)
		input, err := common.BindAndValidate[dto.MoneyMovement](c)
		if input == nil {
			return err
		}
		res, err := ledgerSvc.Deposit(c.UserContext(), input.AccountNumber, input.Amount, actor.Ref)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to deposit", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Deposit successful", result(res, cur))
	}
}

// Withdraw debits an account.
func Withdraw(ledgerSvc *ledger.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, _ := middleware.ActorFromCtx(c)
		input, err := common.BindAndValidate[dto.MoneyMovement](c)
		if input == nil {
			return err
		}
		res, err := ledgerSvc.Withdraw(c.UserContext(), input.AccountNumber, input.Amount, actor.Ref)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to withdraw", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Withdrawal successful", result(res, cur))
	}
}

// Transfer is not supported.
func Transfer(ledgerSvc *ledger.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, _ := middleware.ActorFromCtx(c)
		input, err := common.BindAndValidate[dto.TransferRequest](c)
		if input == nil {
			return err
		}
		_, err = ledgerSvc.Transfer(c.UserContext(), input.Source, input.Dest, input.Amount, actor.Ref)
		return common.ProblemDetailsJSON(c, "Transfer not available", err)
	}
}

// Cancel reverses a validated transaction.
func Cancel(ledgerSvc *ledger.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, _ := middleware.ActorFromCtx(c)
		input := &dto.CancelRequest{}
		if len(c.Body()) > 0 {
			var err error
			if input, err = common.BindAndValidate[dto.CancelRequest](c); input == nil {
				return err
			}
		}
		res, err := ledgerSvc.Cancel(c.UserContext(), c.Params("id"), actor.Ref, input.Reason)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to cancel transaction", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transaction cancelled", result(res, cur))
	}
}

// History lists the transactions of one account, newest first. Clients and
// distributors only see their own account.
func History(ledgerSvc *ledger.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, _ := middleware.ActorFromCtx(c)
		number := c.Params("account_number")
		if number == ledger.AllAccounts || (actor.Role != middleware.RoleAgent && !actor.Owns(number)) {
			return common.ProblemDetailsJSON(c, "Forbidden", domain.ErrForbidden)
		}
		txs, err := ledgerSvc.History(c.UserContext(), number, common.QueryLimit(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", dto.ToTransactionReads(txs, cur))
	}
}

// ListAll lists transactions across every account, newest first.
func ListAll(ledgerSvc *ledger.Service, cur dto.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		txs, err := ledgerSvc.History(c.UserContext(), ledger.AllAccounts, common.QueryLimit(c))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list transactions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Transactions fetched", dto.ToTransactionReads(txs, cur))
	}
}
