// Package app assembles the services of the back office from their
// dependencies.
package app

import (
	"log/slog"

	"github.com/amirasaad/backoffice/pkg/cache"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/decorator"
	"github.com/amirasaad/backoffice/pkg/dto"
	"github.com/amirasaad/backoffice/pkg/eventbus"
	"github.com/amirasaad/backoffice/pkg/handler"
	"github.com/amirasaad/backoffice/pkg/repository"
	"github.com/amirasaad/backoffice/pkg/service/account"
	"github.com/amirasaad/backoffice/pkg/service/ledger"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow           repository.UnitOfWork
	EventBus      eventbus.Bus
	ResponseCache cache.ResponseCache
	Logger        *slog.Logger
}

type App struct {
	Deps           *Deps
	Config         *config.App
	LedgerService  *ledger.Service
	AccountService *account.Service
}

func New(deps *Deps, cfg *config.App, opts ...ledger.Option) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	prefix := ""
	if cfg.Ledger != nil {
		prefix = cfg.Ledger.AccountPrefix
	}
	uow := decorator.NewLoggingUnitOfWork(deps.Uow, deps.Logger)
	app.LedgerService = ledger.New(uow, deps.EventBus, deps.Logger, cfg.Ledger, opts...)
	app.AccountService = account.NewService(uow, deps.EventBus, deps.Logger, prefix)
	return app
}

// Currency returns how amounts are displayed.
func (a *App) Currency() dto.Currency {
	if a.Config.Ledger == nil {
		d := ledger.DefaultConfig()
		return dto.Currency{Code: d.Currency, Exponent: d.MinorUnitExponent}
	}
	return dto.Currency{Code: a.Config.Ledger.Currency, Exponent: a.Config.Ledger.MinorUnitExponent}
}

// setupEventBus registers the event handlers with the event bus.
func (a *App) setupEventBus() {
	if a.Deps.EventBus == nil {
		return
	}
	handler.RegisterAudit(a.Deps.EventBus, a.Deps.Logger)
}
