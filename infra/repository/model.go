package repository

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
	"github.com/google/uuid"
)

// Account represents an account record in the database.
type Account struct {
	AccountNumber string `gorm:"primaryKey;size:32"`
	OwnerRef      string `gorm:"uniqueIndex;size:64;not null"`
	Balance       int64  `gorm:"not null;default:0;check:balance_non_negative,balance >= 0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName specifies the table name for the Account model.
func (Account) TableName() string {
	return "accounts"
}

// Transaction represents a persisted transaction log entry.
type Transaction struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Kind               string    `gorm:"size:16;not null"`
	Amount             int64     `gorm:"not null"`
	SourceAccount      *string   `gorm:"size:32;index"`
	DestAccount        *string   `gorm:"size:32;index"`
	Initiator          string    `gorm:"size:64;not null"`
	Status             string    `gorm:"size:16;not null;default:validated"`
	CreatedAt          time.Time `gorm:"index"`
	CancelledAt        *time.Time
	CancelledBy        *string `gorm:"size:64"`
	CancellationReason *string
}

// TableName specifies the table name for the Transaction model.
func (Transaction) TableName() string {
	return "transactions"
}

func toAccountModel(a *account.Account) *Account {
	return &Account{
		AccountNumber: a.Number,
		OwnerRef:      a.OwnerRef,
		Balance:       a.Balance,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (m *Account) toDomain() (*account.Account, error) {
	return account.New().
		WithNumber(m.AccountNumber).
		WithOwnerRef(m.OwnerRef).
		WithBalance(m.Balance).
		WithCreatedAt(m.CreatedAt).
		WithUpdatedAt(m.UpdatedAt).
		Build()
}

func toTransactionModel(t *account.Transaction) *Transaction {
	m := &Transaction{
		ID:            t.ID,
		Kind:          string(t.Kind()),
		Amount:        t.Amount,
		SourceAccount: nullable(t.Source()),
		DestAccount:   nullable(t.Dest()),
		Initiator:     t.Initiator,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
	}
	if c := t.Cancellation; c != nil {
		at := c.At
		m.CancelledAt = &at
		m.CancelledBy = &c.By
		m.CancellationReason = &c.Reason
	}
	return m
}

func (m *Transaction) toDomain() (*account.Transaction, error) {
	var c *account.Cancellation
	if m.CancelledAt != nil {
		c = &account.Cancellation{At: *m.CancelledAt, By: deref(m.CancelledBy), Reason: deref(m.CancellationReason)}
	}
	return account.NewTransactionFromData(
		m.ID,
		account.Kind(m.Kind),
		deref(m.SourceAccount),
		deref(m.DestAccount),
		m.Amount,
		m.Initiator,
		account.Status(m.Status),
		m.CreatedAt,
		c,
	)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
