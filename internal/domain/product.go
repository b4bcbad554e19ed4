package domain

import "time"

type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Price         Money     `json:"priceCents"`
	OriginalPrice Money     `json:"originalPriceCents"`
	Image         string    `json:"image"`
	Category      string    `json:"category"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	Rating        float64   `json:"rating"`
	Description   string    `json:"description,omitempty"`
	Stock         int       `json:"stock"`
	CreatedAt     time.Time `json:"createdAt"`
}

// InStock reports whether the product can be sold.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// HasSize reports whether size is one of the product's sizes. Products with no
// sizes accept only the empty size.
func (p Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return size == ""
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}
