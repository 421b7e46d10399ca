package dto

import (
	"fmt"

	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/shopspring/decimal"
)

// Amount is a monetary value in minor units together with its display form.
type Amount struct {
	Minor    int64  `json:"minor"`
	Display  string `json:"display"`
	Currency string `json:"currency"`
}

// Currency describes how minor units map to the displayed currency.
type Currency struct {
	Code     string
	Exponent int32
}

// NewAmount formats minor units using the currency exponent.
func (c Currency) NewAmount(minor int64) Amount {
	return Amount{Minor: minor, Display: FormatMinor(minor, c.Exponent), Currency: c.Code}
}

// FormatMinor renders minor units as a fixed-point decimal with exponent
// fractional digits, e.g. FormatMinor(12345, 2) == "123.45".
func FormatMinor(minor int64, exponent int32) string {
	if exponent < 0 {
		exponent = 0
	}
	return decimal.New(minor, -exponent).StringFixed(exponent)
}

// ParseMinor converts a displayed amount such as "123.45" to minor units.
// Values with more fractional digits than exponent are rejected.
func ParseMinor(s string, exponent int32) (int64, error) {
	if exponent < 0 {
		exponent = 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, s)
	}
	shifted := d.Shift(exponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("%w: %q has more than %d decimal places", domain.ErrInvalidAmount, s, exponent)
	}
	if !shifted.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: %q is out of range", domain.ErrInvalidAmount, s)
	}
	return shifted.IntPart(), nil
}
