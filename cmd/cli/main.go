package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/amirasaad/backoffice/infra/initializer"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/amirasaad/backoffice/pkg/dto"
	"github.com/fatih/color"
)

const usage = `Usage: cli [-env file] [-as actor] <command> [arguments]

Commands:
  open <owner_ref>
  deposit <account_number> <amount>
  withdraw <account_number> <amount>
  cancel <transaction_id> [reason]
  balance <account_number>
  history <account_number|all> [limit]
`

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
	warnColor = color.New(color.FgYellow)
)

// errUsage reports a malformed command line.
var errUsage = errors.New("invalid arguments")

func main() {
	fs := flag.NewFlagSet("cli", flag.ExitOnError)
	envFile := fs.String("env", ".env", "environment file to load")
	actor := fs.String("as", "cli-operator", "actor reference recorded on transactions")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		_, _ = errColor.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		_, _ = errColor.Fprintln(os.Stderr, "Failed to initialize dependencies:", err)
		os.Exit(1)
	}

	c := &commands{app: app.New(deps, cfg), actor: *actor, out: os.Stdout}
	err = c.run(context.Background(), fs.Args())
	cleanup()
	if err != nil {
		_, _ = errColor.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type commands struct {
	app   *app.App
	actor string
	out   io.Writer
}

func (c *commands) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "open":
		return c.open(ctx, rest)
	case "deposit", "withdraw":
		return c.move(ctx, cmd, rest)
	case "cancel":
		return c.cancel(ctx, rest)
	case "balance":
		return c.balance(ctx, rest)
	case "history":
		return c.history(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (c *commands) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: open <owner_ref>", errUsage)
	}
	acc, err := c.app.AccountService.Open(ctx, args[0])
	if err != nil {
		return err
	}
	_, _ = okColor.Fprintf(c.out, "Account opened: %s", acc.Number)
	fmt.Fprintf(c.out, " owner=%s balance=%s\n", acc.OwnerRef, c.amount(acc.Balance))
	return nil
}

func (c *commands) move(ctx context.Context, cmd string, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: %s <account_number> <amount>", errUsage, cmd)
	}
	amount, err := dto.ParseMinor(args[1], c.app.Currency().Exponent)
	if err != nil {
		return err
	}
	svc := c.app.LedgerService
	move := svc.Deposit
	verb := "Deposited"
	if cmd == "withdraw" {
		move = svc.Withdraw
		verb = "Withdrew"
	}
	res, err := move(ctx, args[0], amount, c.actor)
	if err != nil {
		return err
	}
	_, _ = okColor.Fprintf(c.out, "%s %s", verb, c.amount(amount))
	fmt.Fprintf(c.out, " on %s. New balance: %s\n", args[0], c.amount(res.Balance))
	_, _ = dimColor.Fprintf(c.out, "transaction %s\n", res.Transaction.ID)
	return nil
}

func (c *commands) cancel(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: cancel <transaction_id> [reason]", errUsage)
	}
	reason := ""
	if len(args) == 2 {
		reason = args[1]
	}
	res, err := c.app.LedgerService.Cancel(ctx, args[0], c.actor, reason)
	if err != nil {
		return err
	}
	tx := res.Transaction
	acct := tx.Source()
	if acct == "" {
		acct = tx.Dest()
	}
	_, _ = okColor.Fprintf(c.out, "Cancelled %s %s", tx.Kind(), tx.ID)
	fmt.Fprintf(c.out, " (%s). Balance of %s: %s\n", tx.Cancellation.Reason, acct, c.amount(res.Balance))
	return nil
}

func (c *commands) balance(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: balance <account_number>", errUsage)
	}
	bal, err := c.app.AccountService.Balance(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Account %s balance: ", args[0])
	_, _ = okColor.Fprintln(c.out, c.amount(bal))
	return nil
}

func (c *commands) history(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: history <account_number|all> [limit]", errUsage)
	}
	limit := 0
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: limit must be a positive integer", errUsage)
		}
		limit = n
	}
	txs, err := c.app.LedgerService.History(ctx, args[0], limit)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		_, _ = warnColor.Fprintln(c.out, "No transactions.")
		return nil
	}

	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tID\tKIND\tACCOUNT\tAMOUNT\tINITIATOR\tSTATUS")
	for _, tx := range txs {
		acct := tx.Dest()
		if tx.Kind() == account.KindWithdrawal {
			acct = tx.Source()
		}
		status := string(tx.Status)
		if tx.IsCancelled() {
			status = warnColor.Sprint(status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			tx.ID, tx.Kind(), acct, c.amount(tx.Amount), tx.Initiator, status)
	}
	return w.Flush()
}

func (c *commands) amount(minor int64) string {
	a := c.app.Currency().NewAmount(minor)
	return a.Display + " " + a.Currency
}
