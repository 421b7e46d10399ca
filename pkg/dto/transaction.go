package dto

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// TransactionRead is the API representation of a transaction.
type TransactionRead struct {
	ID                 uuid.UUID  `json:"id"`
	Kind               string     `json:"kind"`
	Source             string     `json:"source_account,omitempty"`
	Dest               string     `json:"dest_account,omitempty"`
	Amount             Amount     `json:"amount"`
	Initiator          string     `json:"initiator"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
}

// LedgerResult is the API representation of a committed ledger mutation.
type LedgerResult struct {
	Transaction TransactionRead `json:"transaction"`
	Balance     Amount          `json:"balance"`
}

// MoneyMovement is the request body for deposits and withdrawals.
type MoneyMovement struct {
	AccountNumber string `json:"account_number" validate:"required,max=32"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
}

// TransferRequest is the request body for transfers.
type TransferRequest struct {
	Source string `json:"source_account" validate:"required,max=32"`
	Dest   string `json:"dest_account" validate:"required,max=32,nefield=Source"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

// CancelRequest is the request body for cancellations.
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// ToTransactionRead maps a domain transaction to its API representation.
func ToTransactionRead(t *account.Transaction, c Currency) TransactionRead {
	out := TransactionRead{
		ID:        t.ID,
		Kind:      string(t.Kind()),
		Source:    t.Source(),
		Dest:      t.Dest(),
		Amount:    c.NewAmount(t.Amount),
		Initiator: t.Initiator,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
	if cn := t.Cancellation; cn != nil {
		at := cn.At
		out.CancelledAt = &at
		out.CancelledBy = cn.By
		out.CancellationReason = cn.Reason
	}
	return out
}

// ToTransactionReads maps a list of transactions, preserving order.
func ToTransactionReads(txs []*account.Transaction, c Currency) []TransactionRead {
	out := make([]TransactionRead, 0, len(txs))
	for _, t := range txs {
		out = append(out, ToTransactionRead(t, c))
	}
	return out
}
