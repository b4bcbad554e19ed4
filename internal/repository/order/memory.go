package order

import (
	"context"
	"sort"
	"sync"

	"lavibaby-storefront/internal/domain"
)

// memoryRepo keeps orders for DB-less runs. Orders are lost on restart.
type memoryRepo struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewMemory() Repository {
	return &memoryRepo{orders: make(map[string]domain.Order)}
}

func (r *memoryRepo) Create(_ context.Context, o domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return domain.ErrAlreadyExists
	}
	o.Items = append([]domain.CartItem(nil), o.Items...)
	r.orders[o.ID] = o
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	o.Items = append([]domain.CartItem(nil), o.Items...)
	return &o, nil
}

func (r *memoryRepo) ListBySession(_ context.Context, sessionID string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Order{}
	for _, o := range r.orders {
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepo) UpdatePayment(_ context.Context, id string, status domain.OrderPaymentStatus, transactionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.PaymentStatus = status
	if transactionID != "" {
		o.TransactionID = transactionID
	}
	r.orders[id] = o
	return nil
}
