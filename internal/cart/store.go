// Package cart holds the line-item list for one shopper. Items are keyed by
// (product, size) and the whole list is written to a single KV entry after
// every mutation.
package cart

import (
	"context"
	"errors"
	"fmt"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/kv"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrInvalidProduct  = errors.New("product id required")
)

// Store is not safe for concurrent use; callers serialise access per cart.
type Store struct {
	kv    kv.Store
	key   string
	items []domain.CartItem
}

// Load rehydrates the cart stored under key. A missing entry is an empty
// cart; an entry that does not decode is an error.
func Load(ctx context.Context, store kv.Store, key string) (*Store, error) {
	s := &Store{kv: store, key: key}
	var items []domain.CartItem
	err := kv.GetJSON(ctx, store, key, &items)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load cart %s: %w", key, err)
	default:
		s.items = dropInvalid(items)
	}
	return s, nil
}

// AddToCart increments the quantity of the (product, size) line, or appends
// a new line priced from the product.
func (s *Store) AddToCart(ctx context.Context, p domain.Product, size string, qty int) error {
	if p.ID == 0 {
		return ErrInvalidProduct
	}
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].Matches(p.ID, size) {
				items[i].Quantity += qty
				return items
			}
		}
		return append(items, domain.CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Image:     p.Image,
			Quantity:  qty,
			Size:      size,
		})
	})
}

// UpdateQuantity sets the quantity of the (product, size) line. A quantity of
// zero or less removes the line. Updating a line that is not in the cart is a
// no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, qty int, size string) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, productID, size)
	}
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		for i := range items {
			if items[i].Matches(productID, size) {
				items[i].Quantity = qty
			}
		}
		return items
	})
}

// RemoveItem drops the (product, size) line. Removing an absent line is not
// an error.
func (s *Store) RemoveItem(ctx context.Context, productID int64, size string) error {
	return s.mutate(ctx, func(items []domain.CartItem) []domain.CartItem {
		out := items[:0]
		for _, it := range items {
			if !it.Matches(productID, size) {
				out = append(out, it)
			}
		}
		return out
	})
}

// ClearCart empties the cart.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]domain.CartItem) []domain.CartItem {
		return nil
	})
}

// Items returns a copy of the current lines.
func (s *Store) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) TotalItems() int {
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) TotalPrice() domain.Money {
	var total domain.Money
	for _, it := range s.items {
		total += it.Total()
	}
	return total
}

// mutate applies fn to a copy of the lines and persists the result. The
// in-memory list only changes once the write succeeded.
func (s *Store) mutate(ctx context.Context, fn func([]domain.CartItem) []domain.CartItem) error {
	next := fn(s.Items())
	if len(next) == 0 {
		next = nil
	}
	payload := next
	if payload == nil {
		payload = []domain.CartItem{}
	}
	if err := kv.SetJSON(ctx, s.kv, s.key, payload); err != nil {
		return fmt.Errorf("persist cart %s: %w", s.key, err)
	}
	s.items = next
	return nil
}

func dropInvalid(items []domain.CartItem) []domain.CartItem {
	out := items[:0]
	for _, it := range items {
		if it.ProductID != 0 && it.Quantity > 0 {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
