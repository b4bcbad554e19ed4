package order

import (
	"context"

	"lavibaby-storefront/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, o domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
	UpdatePayment(ctx context.Context, id string, status domain.OrderPaymentStatus, transactionID string) error
}
