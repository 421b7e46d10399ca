package events

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	EventTypeTransactionRecorded  EventType = "Transaction.Recorded"
	EventTypeTransactionCancelled EventType = "Transaction.Cancelled"
	EventTypeAccountOpened        EventType = "Account.Opened"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// Event is a fact published after a unit of work commits.
type Event interface {
	Type() string
}

// EventTypes maps wire type names to constructors, used by the stream-backed
// buses to decode envelopes.
var EventTypes = map[EventType]func() Event{
	EventTypeTransactionRecorded:  func() Event { return &TransactionRecorded{} },
	EventTypeTransactionCancelled: func() Event { return &TransactionCancelled{} },
	EventTypeAccountOpened:        func() Event { return &AccountOpened{} },
}

// TransactionRecorded is emitted after a deposit or withdrawal commits.
type TransactionRecorded struct {
	ID            uuid.UUID    `json:"id"`
	TransactionID uuid.UUID    `json:"transaction_id"`
	Kind          account.Kind `json:"kind"`
	Source        string       `json:"source,omitempty"`
	Dest          string       `json:"dest,omitempty"`
	Amount        int64        `json:"amount"`
	Balance       int64        `json:"balance"`
	Initiator     string       `json:"initiator"`
	Timestamp     time.Time    `json:"timestamp"`
}

// Type implements Event.
func (e *TransactionRecorded) Type() string { return EventTypeTransactionRecorded.String() }

// TransactionCancelled is emitted after a cancellation and its reversal commit.
type TransactionCancelled struct {
	ID            uuid.UUID    `json:"id"`
	TransactionID uuid.UUID    `json:"transaction_id"`
	Kind          account.Kind `json:"kind"`
	Account       string       `json:"account"`
	Direction     string       `json:"direction"`
	Amount        int64        `json:"amount"`
	Balance       int64        `json:"balance"`
	CancelledBy   string       `json:"cancelled_by"`
	Reason        string       `json:"reason"`
	Timestamp     time.Time    `json:"timestamp"`
}

// Type implements Event.
func (e *TransactionCancelled) Type() string { return EventTypeTransactionCancelled.String() }

// AccountOpened is emitted after a new account is created.
type AccountOpened struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	OwnerRef  string    `json:"owner_ref"`
	Timestamp time.Time `json:"timestamp"`
}

// Type implements Event.
func (e *AccountOpened) Type() string { return EventTypeAccountOpened.String() }

// NewTransactionRecorded builds the event for a committed transaction.
func NewTransactionRecorded(tx *account.Transaction, balance int64) *TransactionRecorded {
	return &TransactionRecorded{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		Kind:          tx.Kind(),
		Source:        tx.Source(),
		Dest:          tx.Dest(),
		Amount:        tx.Amount,
		Balance:       balance,
		Initiator:     tx.Initiator,
		Timestamp:     tx.CreatedAt,
	}
}

// NewTransactionCancelled builds the event for a committed cancellation.
func NewTransactionCancelled(tx *account.Transaction, rev account.Reversal, balance int64) *TransactionCancelled {
	e := &TransactionCancelled{
		ID:            uuid.New(),
		TransactionID: tx.ID,
		Kind:          tx.Kind(),
		Account:       rev.Account,
		Direction:     rev.Direction.String(),
		Amount:        rev.Amount,
		Balance:       balance,
	}
	if c := tx.Cancellation; c != nil {
		e.CancelledBy = c.By
		e.Reason = c.Reason
		e.Timestamp = c.At
	}
	return e
}
