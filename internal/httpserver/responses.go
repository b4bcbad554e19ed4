package httpserver

import (
	"lavibaby-storefront/internal/checkout"
	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
	cartsvc "lavibaby-storefront/internal/service/cart"
)

// Responses carry cents for arithmetic and preformatted labels for display.

type productResponse struct {
	domain.Product
	InStock            bool   `json:"inStock"`
	PriceLabel         string `json:"priceLabel"`
	OriginalPriceLabel string `json:"originalPriceLabel,omitempty"`
	DiscountPercent    int    `json:"discountPercent,omitempty"`
}

func toProductResponse(p domain.Product) productResponse {
	if p.Sizes == nil {
		p.Sizes = []string{}
	}
	if p.Colors == nil {
		p.Colors = []string{}
	}
	r := productResponse{
		Product:    p,
		InStock:    p.InStock(),
		PriceLabel: format.Currency(p.Price),
	}
	if p.OriginalPrice > p.Price {
		r.OriginalPriceLabel = format.Currency(p.OriginalPrice)
		r.DiscountPercent = int((p.OriginalPrice - p.Price) * 100 / p.OriginalPrice)
	}
	return r
}

func toProductResponses(list []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toProductResponse(p))
	}
	return out
}

type cartItemResponse struct {
	domain.CartItem
	UnitPriceLabel string `json:"unitPriceLabel"`
	TotalLabel     string `json:"totalLabel"`
}

type cartResponse struct {
	Items           []cartItemResponse `json:"items"`
	TotalItems      int                `json:"totalItems"`
	TotalPriceCents domain.Money       `json:"totalPriceCents"`
	TotalPriceLabel string             `json:"totalPriceLabel"`
}

func toCartResponse(v cartsvc.View) cartResponse {
	items := make([]cartItemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, cartItemResponse{
			CartItem:       it,
			UnitPriceLabel: format.Currency(it.UnitPrice),
			TotalLabel:     format.Currency(it.Total()),
		})
	}
	return cartResponse{
		Items:           items,
		TotalItems:      v.TotalItems,
		TotalPriceCents: v.TotalPrice,
		TotalPriceLabel: format.Currency(v.TotalPrice),
	}
}

type quoteLabels struct {
	Subtotal string `json:"subtotal"`
	Shipping string `json:"shipping"`
	Total    string `json:"total"`
}

type checkoutResponse struct {
	checkout.View
	Labels quoteLabels `json:"labels"`
}

func toCheckoutResponse(v checkout.View) checkoutResponse {
	if v.Items == nil {
		v.Items = []domain.CartItem{}
	}
	return checkoutResponse{
		View: v,
		Labels: quoteLabels{
			Subtotal: format.Currency(v.Quote.Subtotal),
			Shipping: format.Shipping(v.Quote.Shipping),
			Total:    format.Currency(v.Quote.Total),
		},
	}
}
