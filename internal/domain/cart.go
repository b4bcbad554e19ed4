package domain

// CartItem is one line of a cart. Identity is (ProductID, Size); an empty
// Size means the product has no size.
type CartItem struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unitPriceCents"`
	Image     string `json:"image"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
}

// Total returns UnitPrice x Quantity.
func (i CartItem) Total() Money {
	return i.UnitPrice.Mul(i.Quantity)
}

// Matches reports whether the item has the given identity.
func (i CartItem) Matches(productID int64, size string) bool {
	return i.ProductID == productID && i.Size == size
}
