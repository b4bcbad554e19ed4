package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
)

const (
	MaxInstallments = 12
	// MinInstallment is the smallest amount a single installment may carry.
	MinInstallment domain.Money = 500
)

type Installment struct {
	Count        int          `json:"count"`
	Amount       domain.Money `json:"amountCents"`
	Total        domain.Money `json:"totalCents"`
	InterestFree bool         `json:"interestFree"`
	Label        string       `json:"label"`
}

// CalculateInstallments lists the interest-free options for total, from 1x up
// to MaxInstallments while each installment stays at or above MinInstallment.
// The single payment option is always present for a positive total.
func CalculateInstallments(total domain.Money) []Installment {
	if total <= 0 {
		return nil
	}
	whole := total.Decimal()
	out := make([]Installment, 0, MaxInstallments)
	for n := 1; n <= MaxInstallments; n++ {
		per := domain.MoneyFromDecimal(whole.Div(decimal.NewFromInt(int64(n))))
		if n > 1 && per < MinInstallment {
			break
		}
		out = append(out, Installment{
			Count:        n,
			Amount:       per,
			Total:        total,
			InterestFree: true,
			Label:        fmt.Sprintf("%dx de %s sem juros", n, format.Currency(per)),
		})
	}
	return out
}
