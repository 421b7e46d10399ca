package account

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/google/uuid"
)

// Kind identifies the variant of a Transaction.
type Kind string

// Transaction kinds.
const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindTransfer   Kind = "transfer"
)

// Status is the lifecycle state of a Transaction.
type Status string

// Transaction statuses. Recorded transactions start as validated; pending is
// reserved for flows that settle later and is never produced by the ledger.
const (
	StatusPending   Status = "pending"
	StatusValidated Status = "validated"
	StatusCancelled Status = "cancelled"
)

// DefaultCancellationReason is recorded when a cancellation supplies no reason.
const DefaultCancellationReason = "cancelled by operator"

// ErrMissingAccount is returned when a payload lacks the account it needs.
var ErrMissingAccount = errors.New("transaction payload is missing an account number")

// Payload carries the kind-specific account references of a Transaction.
type Payload interface {
	Kind() Kind
	accounts() (source, dest string)
}

// DepositPayload credits Dest.
type DepositPayload struct {
	Dest string
}

// Kind implements Payload.
func (DepositPayload) Kind() Kind { return KindDeposit }

func (p DepositPayload) accounts() (string, string) { return "", p.Dest }

// WithdrawalPayload debits Source.
type WithdrawalPayload struct {
	Source string
}

// Kind implements Payload.
func (WithdrawalPayload) Kind() Kind { return KindWithdrawal }

func (p WithdrawalPayload) accounts() (string, string) { return p.Source, "" }

// TransferPayload moves funds from Source to Dest. The ledger never records
// transfers; the variant exists so stored rows of that kind can be read.
type TransferPayload struct {
	Source string
	Dest   string
}

// Kind implements Payload.
func (TransferPayload) Kind() Kind { return KindTransfer }

func (p TransferPayload) accounts() (string, string) { return p.Source, p.Dest }

// Cancellation records who cancelled a transaction, when, and why.
type Cancellation struct {
	At     time.Time
	By     string
	Reason string
}

// Transaction is an immutable record of a balance movement. The only
// permitted change after it is recorded is the single transition from
// validated to cancelled.
type Transaction struct {
	ID           uuid.UUID
	Payload      Payload
	Amount       int64
	Initiator    string
	Status       Status
	CreatedAt    time.Time
	Cancellation *Cancellation
}

// NewDeposit returns a validated deposit crediting dest.
func NewDeposit(dest string, amount int64, initiator string, at time.Time) (*Transaction, error) {
	return newTransaction(DepositPayload{Dest: dest}, amount, initiator, at)
}

// NewWithdrawal returns a validated withdrawal debiting source.
func NewWithdrawal(source string, amount int64, initiator string, at time.Time) (*Transaction, error) {
	return newTransaction(WithdrawalPayload{Source: source}, amount, initiator, at)
}

func newTransaction(p Payload, amount int64, initiator string, at time.Time) (*Transaction, error) {
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	return &Transaction{
		ID:        uuid.New(),
		Payload:   p,
		Amount:    amount,
		Initiator: initiator,
		Status:    StatusValidated,
		CreatedAt: at.UTC(),
	}, nil
}

// NewTransactionFromData rebuilds a Transaction from stored columns. The
// kind decides which account columns are meaningful.
func NewTransactionFromData(
	id uuid.UUID,
	kind Kind,
	source, dest string,
	amount int64,
	initiator string,
	status Status,
	createdAt time.Time,
	cancellation *Cancellation,
) (*Transaction, error) {
	var p Payload
	switch kind {
	case KindDeposit:
		p = DepositPayload{Dest: dest}
	case KindWithdrawal:
		p = WithdrawalPayload{Source: source}
	case KindTransfer:
		p = TransferPayload{Source: source, Dest: dest}
	default:
		return nil, fmt.Errorf("%w: unknown transaction kind %q", domain.ErrValidation, kind)
	}
	if err := validatePayload(p); err != nil {
		return nil, err
	}
	return &Transaction{
		ID:           id,
		Payload:      p,
		Amount:       amount,
		Initiator:    initiator,
		Status:       status,
		CreatedAt:    createdAt,
		Cancellation: cancellation,
	}, nil
}

func validatePayload(p Payload) error {
	src, dst := p.accounts()
	switch p.Kind() {
	case KindDeposit:
		if dst == "" {
			return fmt.Errorf("%w: %w", domain.ErrValidation, ErrMissingAccount)
		}
	case KindWithdrawal:
		if src == "" {
			return fmt.Errorf("%w: %w", domain.ErrValidation, ErrMissingAccount)
		}
	case KindTransfer:
		if src == "" || dst == "" {
			return fmt.Errorf("%w: %w", domain.ErrValidation, ErrMissingAccount)
		}
	}
	return nil
}

// Kind returns the variant of the transaction.
func (t *Transaction) Kind() Kind { return t.Payload.Kind() }

// Source returns the debited account number, or "" for deposits.
func (t *Transaction) Source() string {
	src, _ := t.Payload.accounts()
	return src
}

// Dest returns the credited account number, or "" for withdrawals.
func (t *Transaction) Dest() string {
	_, dst := t.Payload.accounts()
	return dst
}

// Touches reports whether the transaction references the account number.
func (t *Transaction) Touches(number string) bool {
	src, dst := t.Payload.accounts()
	return number != "" && (src == number || dst == number)
}

// IsCancelled reports whether the transaction was cancelled.
func (t *Transaction) IsCancelled() bool { return t.Status == StatusCancelled }

// Cancel transitions a validated transaction to cancelled. An empty reason is
// replaced by DefaultCancellationReason.
func (t *Transaction) Cancel(by, reason string, at time.Time) error {
	switch t.Status {
	case StatusValidated:
	case StatusCancelled:
		return domain.ErrAlreadyCancelled
	default:
		return fmt.Errorf("%w: cannot cancel a %s transaction", domain.ErrValidation, t.Status)
	}
	if reason == "" {
		reason = DefaultCancellationReason
	}
	t.Status = StatusCancelled
	t.Cancellation = &Cancellation{At: at.UTC(), By: by, Reason: reason}
	return nil
}

// Direction tells whether a balance effect adds or removes funds.
type Direction int

// Balance effect directions.
const (
	Credit Direction = iota + 1
	Debit
)

func (d Direction) String() string {
	switch d {
	case Credit:
		return "credit"
	case Debit:
		return "debit"
	default:
		return "unknown"
	}
}

// Reversal is the balance effect that undoes a transaction.
type Reversal struct {
	Account   string
	Direction Direction
	Amount    int64
}

// Reversal returns the inverse balance effect of the transaction: a deposit is
// undone by debiting its destination and a withdrawal by crediting its source.
// Transfers cannot be reversed.
func (t *Transaction) Reversal() (Reversal, error) {
	switch p := t.Payload.(type) {
	case DepositPayload:
		return Reversal{Account: p.Dest, Direction: Debit, Amount: t.Amount}, nil
	case WithdrawalPayload:
		return Reversal{Account: p.Source, Direction: Credit, Amount: t.Amount}, nil
	default:
		return Reversal{}, fmt.Errorf("%w: cannot reverse a %s", domain.ErrUnsupportedOperation, t.Kind())
	}
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Cancellation != nil {
		cc := *t.Cancellation
		c.Cancellation = &cc
	}
	return &c
}

// ValidateAmount checks that amount is a positive number of minor units not
// below minAmount.
func ValidateAmount(amount, minAmount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", domain.ErrInvalidAmount)
	}
	if amount < minAmount {
		return fmt.Errorf("%w: amount must be at least %d", domain.ErrInvalidAmount, minAmount)
	}
	return nil
}
