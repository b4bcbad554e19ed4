package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in centavos. Prices never travel as floats inside the
// service; decimal text is converted at the boundary.
type Money int64

var ErrInvalidAmount = errors.New("invalid amount")

// ParseMoney accepts "89.90", "89,90" or "1.234,56" and rounds half-up to
// centavos.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return MoneyFromDecimal(d), nil
}

// MoneyFromDecimal converts a decimal amount in reais to centavos.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}

// Decimal returns the amount in reais.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Mul multiplies the amount by a quantity.
func (m Money) Mul(qty int) Money {
	return m * Money(qty)
}

// String renders the amount with two decimal places and a dot separator.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
