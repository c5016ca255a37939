package proposal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a non-negative decimal amount tagged with a currency code
// Using decimal for financial precision - float64 rounding is not acceptable
// for premium and insured amounts
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney creates a validated Money value
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	if currency == "" {
		return Money{}, ErrMissingCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// NewMoneyFromString parses a decimal string into a Money value
func NewMoneyFromString(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return NewMoney(d, currency)
}

// IsZero reports whether the amount is zero
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// GreaterThan compares the amount against a raw decimal limit
func (m Money) GreaterThan(limit decimal.Decimal) bool {
	return m.Amount.GreaterThan(limit)
}

// String formats the value as "amount currency"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}
