package transaction_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/amirasaad/backoffice/pkg/dto"
	"github.com/amirasaad/backoffice/pkg/middleware"
	"github.com/amirasaad/backoffice/webapi/common"
	"github.com/amirasaad/backoffice/webapi/testutils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

const (
	acct  = "CM-1111-000001"
	other = "CM-2222-000002"
)

type TransactionRoutesSuite struct {
	suite.Suite
	env    *testutils.Env
	agent  string
	distri string
	client string
}

func (s *TransactionRoutesSuite) SetupTest() {
	s.env = testutils.NewEnv(s.T(), nil)
	s.env.SeedAccount(s.T(), acct, "client-1", 0)
	s.env.SeedAccount(s.T(), other, "client-2", 0)
	s.agent = testutils.Token(s.T(), "agent-1", "agent", "")
	s.distri = testutils.Token(s.T(), "distri-1", "distributeur", "")
	s.client = testutils.Token(s.T(), "client-1", "client", acct)
}

func TestTransactionRoutesSuite(t *testing.T) {
	suite.Run(t, new(TransactionRoutesSuite))
}

func (s *TransactionRoutesSuite) post(path, body, token string, headers ...string) *http.Response {
	return testutils.MakeRequestWithApp(s.env.App, fiber.MethodPost, path, body, token, headers...)
}

func (s *TransactionRoutesSuite) get(path, token string) *http.Response {
	return testutils.MakeRequestWithApp(s.env.App, fiber.MethodGet, path, "", token)
}

func movement(number string, amount int64) string {
	return fmt.Sprintf(`{"account_number":%q,"amount":%d}`, number, amount)
}

func (s *TransactionRoutesSuite) deposit(number string, amount int64) dto.LedgerResult {
	resp := s.post("/transactions/deposit", movement(number, amount), s.agent)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var env testutils.Envelope[dto.LedgerResult]
	testutils.Decode(s.T(), resp, &env)
	return env.Data
}

func (s *TransactionRoutesSuite) TestDepositWithdrawCancel() {
	dep := s.deposit(acct, 5000)
	s.Equal(int64(5000), dep.Balance.Minor)
	s.Equal("5000", dep.Balance.Display)
	s.Equal("XAF", dep.Balance.Currency)
	s.Equal("deposit", dep.Transaction.Kind)
	s.Equal("validated", dep.Transaction.Status)
	s.Equal("agent-1", dep.Transaction.Initiator)

	resp := s.post("/transactions/withdraw", movement(acct, 2000), s.distri)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var wd testutils.Envelope[dto.LedgerResult]
	testutils.Decode(s.T(), resp, &wd)
	s.Equal(int64(3000), wd.Data.Balance.Minor)

	resp = s.post(fmt.Sprintf("/transactions/%s/cancel", dep.Transaction.ID), `{"reason":"wrong account"}`, s.agent)
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.post(fmt.Sprintf("/transactions/%s/cancel", wd.Data.Transaction.ID), "", s.agent)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var cancelled testutils.Envelope[dto.LedgerResult]
	testutils.Decode(s.T(), resp, &cancelled)
	s.Equal(int64(5000), cancelled.Data.Balance.Minor)
	s.Equal("cancelled", cancelled.Data.Transaction.Status)
	s.Equal("cancelled by operator", cancelled.Data.Transaction.CancellationReason)

	resp = s.post(fmt.Sprintf("/transactions/%s/cancel", wd.Data.Transaction.ID), "", s.agent)
	s.Equal(fiber.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *TransactionRoutesSuite) TestErrors() {
	tests := []struct {
		name   string
		path   string
		body   string
		token  string
		status int
	}{
		{"below minimum", "/transactions/deposit", movement(acct, 99), "agent", fiber.StatusBadRequest},
		{"unknown account", "/transactions/deposit", movement("CM-0000-000000", 500), "agent", fiber.StatusNotFound},
		{"insufficient funds", "/transactions/withdraw", movement(acct, 500), "distri", fiber.StatusUnprocessableEntity},
		{"missing account", "/transactions/deposit", `{"amount":500}`, "agent", fiber.StatusBadRequest},
		{"malformed body", "/transactions/deposit", `{"amount":`, "agent", fiber.StatusBadRequest},
		{"unknown transaction", "/transactions/" + uuid.NewString() + "/cancel", "", "agent", fiber.StatusNotFound},
		{"malformed transaction id", "/transactions/nope/cancel", "", "agent", fiber.StatusNotFound},
		{"transfer", "/transactions/transfer", fmt.Sprintf(`{"source_account":%q,"dest_account":%q,"amount":500}`, acct, other), "client", fiber.StatusNotImplemented},
		{"no token", "/transactions/deposit", movement(acct, 500), "", fiber.StatusBadRequest},
	}
	tokens := map[string]string{"agent": s.agent, "distri": s.distri, "client": s.client}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.post(tt.path, tt.body, tokens[tt.token])
			defer resp.Body.Close() //nolint: errcheck
			s.Equal(tt.status, resp.StatusCode)
			if tt.status >= fiber.StatusBadRequest && tt.token != "" {
				var pd common.ProblemDetails
				testutils.Decode(s.T(), resp, &pd)
				s.Equal(tt.status, pd.Status)
			}
		})
	}
}

func (s *TransactionRoutesSuite) TestRoles() {
	tests := []struct {
		name   string
		path   string
		body   string
		token  string
		status int
	}{
		{"client cannot deposit", "/transactions/deposit", movement(acct, 500), s.client, fiber.StatusForbidden},
		{"agent cannot withdraw", "/transactions/withdraw", movement(acct, 500), s.agent, fiber.StatusForbidden},
		{"distributeur can deposit", "/transactions/deposit", movement(acct, 500), s.distri, fiber.StatusCreated},
		{"distributeur cannot cancel", "/transactions/" + uuid.NewString() + "/cancel", "", s.distri, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			resp := s.post(tt.path, tt.body, tt.token)
			defer resp.Body.Close() //nolint: errcheck
			s.Equal(tt.status, resp.StatusCode)
		})
	}
}

func (s *TransactionRoutesSuite) TestHistoryAccess() {
	s.deposit(acct, 1000)
	s.deposit(acct, 2000)
	s.deposit(other, 3000)

	resp := s.get("/transactions/history/"+acct, s.client)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var own testutils.Envelope[[]dto.TransactionRead]
	testutils.Decode(s.T(), resp, &own)
	s.Require().Len(own.Data, 2)
	s.Equal(int64(2000), own.Data[0].Amount.Minor)

	resp = s.get("/transactions/history/"+other, s.client)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.get("/transactions/history/all", s.agent)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp = s.get("/transactions/history/"+other+"?limit=1", s.agent)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var scoped testutils.Envelope[[]dto.TransactionRead]
	testutils.Decode(s.T(), resp, &scoped)
	s.Len(scoped.Data, 1)

	resp = s.get("/transactions?limit=2", s.agent)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	var all testutils.Envelope[[]dto.TransactionRead]
	testutils.Decode(s.T(), resp, &all)
	s.Len(all.Data, 2)

	resp = s.get("/transactions", s.client)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func (s *TransactionRoutesSuite) TestIdempotentDeposit() {
	key := uuid.NewString()
	first := s.post("/transactions/deposit", movement(acct, 700), s.agent, middleware.HeaderIdempotencyKey, key)
	s.Require().Equal(fiber.StatusCreated, first.StatusCode)
	var a testutils.Envelope[dto.LedgerResult]
	testutils.Decode(s.T(), first, &a)

	second := s.post("/transactions/deposit", movement(acct, 700), s.agent, middleware.HeaderIdempotencyKey, key)
	s.Require().Equal(fiber.StatusCreated, second.StatusCode)
	s.Equal("true", second.Header.Get(middleware.HeaderIdempotencyHit))
	var b testutils.Envelope[dto.LedgerResult]
	testutils.Decode(s.T(), second, &b)

	s.Equal(a.Data.Transaction.ID, b.Data.Transaction.ID)
	resp := s.get("/accounts/"+acct+"/balance", s.agent)
	var bal testutils.Envelope[dto.BalanceRead]
	testutils.Decode(s.T(), resp, &bal)
	s.Equal(int64(700), bal.Data.Balance.Minor)
}
