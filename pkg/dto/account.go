package dto

import (
	"time"

	"github.com/amirasaad/backoffice/pkg/domain/account"
)

// AccountRead is the API representation of an account.
type AccountRead struct {
	Number    string    `json:"account_number"`
	OwnerRef  string    `json:"owner_ref"`
	Balance   Amount    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountCreate is the request body for provisioning an account.
type AccountCreate struct {
	OwnerRef string `json:"owner_ref" validate:"required,max=64"`
}

// BalanceRead is the API representation of an account balance.
type BalanceRead struct {
	Number  string `json:"account_number"`
	Balance Amount `json:"balance"`
}

// ToAccountRead maps a domain account to its API representation.
func ToAccountRead(a *account.Account, c Currency) AccountRead {
	return AccountRead{
		Number:    a.Number,
		OwnerRef:  a.OwnerRef,
		Balance:   c.NewAmount(a.Balance),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToAccountReads maps a list of accounts.
func ToAccountReads(accs []*account.Account, c Currency) []AccountRead {
	out := make([]AccountRead, 0, len(accs))
	for _, a := range accs {
		out = append(out, ToAccountRead(a, c))
	}
	return out
}
