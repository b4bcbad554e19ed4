package checkout

import "lavibaby-storefront/internal/domain"

const (
	ExpressFee  domain.Money = 1590
	StandardFee domain.Money = 990
	// DefaultFreeShippingThreshold applies when site settings carry none.
	DefaultFreeShippingThreshold domain.Money = 15000
)

type Quote struct {
	Subtotal     domain.Money          `json:"subtotalCents"`
	Shipping     domain.Money          `json:"shippingCents"`
	Total        domain.Money          `json:"totalCents"`
	Method       domain.ShippingMethod `json:"shippingMethod"`
	FreeShipping bool                  `json:"freeShipping"`
}

// Subtotal is the sum of price x quantity over items.
func Subtotal(items []domain.CartItem) domain.Money {
	var sum domain.Money
	for _, it := range items {
		sum += it.Total()
	}
	return sum
}

// ShippingCost charges the express fee for express delivery regardless of the
// subtotal. Standard delivery is free from threshold upwards.
func ShippingCost(subtotal domain.Money, method domain.ShippingMethod, threshold domain.Money) domain.Money {
	if method == domain.ShippingExpress {
		return ExpressFee
	}
	if subtotal >= threshold {
		return 0
	}
	return StandardFee
}

func QuoteFor(items []domain.CartItem, method domain.ShippingMethod, threshold domain.Money) Quote {
	if method == "" {
		method = domain.ShippingStandard
	}
	sub := Subtotal(items)
	ship := ShippingCost(sub, method, threshold)
	return Quote{
		Subtotal:     sub,
		Shipping:     ship,
		Total:        sub + ship,
		Method:       method,
		FreeShipping: ship == 0,
	}
}
