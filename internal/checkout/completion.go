package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
)

var ErrAlreadyPaid = errors.New("checkout: order already paid")

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	UpdatePayment(ctx context.Context, id string, status domain.OrderPaymentStatus, transactionID string) error
}

type CartClearer interface {
	Clear(ctx context.Context, sessionID string) error
}

type EventPublisher interface {
	OrderCompleted(ctx context.Context, order domain.Order) error
	OrderPaid(ctx context.Context, order domain.Order) error
}

// OrderCompleter persists the order, empties the cart and announces the
// order. Publishing is best effort; the order is already stored.
type OrderCompleter struct {
	orders OrderRepository
	carts  CartClearer
	events EventPublisher
	logger *zap.Logger
}

func NewOrderCompleter(orders OrderRepository, carts CartClearer, events EventPublisher, logger *zap.Logger) *OrderCompleter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderCompleter{orders: orders, carts: carts, events: events, logger: logger}
}

func (c *OrderCompleter) Complete(ctx context.Context, order domain.Order) error {
	if err := c.orders.Create(ctx, order); err != nil && !errors.Is(err, domain.ErrAlreadyExists) {
		return fmt.Errorf("store order %s: %w", order.ID, err)
	}
	if err := c.carts.Clear(ctx, order.SessionID); err != nil {
		return fmt.Errorf("clear cart for order %s: %w", order.ID, err)
	}
	if c.events != nil {
		if err := c.events.OrderCompleted(ctx, order); err != nil {
			c.logger.Warn("order completed event not published", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	c.logger.Info("order completed",
		zap.String("order_id", order.ID),
		zap.String("session_id", order.SessionID),
		zap.String("payment_status", string(order.PaymentStatus)),
		zap.Int64("total_cents", int64(order.Total)),
	)
	return nil
}

// ConfirmPayment marks an order awaiting PIX or boleto settlement as paid.
// It is what the provider's webhook calls.
func (c *OrderCompleter) ConfirmPayment(ctx context.Context, orderID, transactionID string) (*domain.Order, error) {
	order, err := c.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == domain.OrderPaid {
		return order, ErrAlreadyPaid
	}
	if transactionID == "" || transactionID != order.TransactionID {
		return nil, domain.NewValidationError("transactionId", "transaction does not match order")
	}
	if err := c.orders.UpdatePayment(ctx, orderID, domain.OrderPaid, order.TransactionID); err != nil {
		return nil, err
	}
	order.PaymentStatus = domain.OrderPaid
	if c.events != nil {
		if err := c.events.OrderPaid(ctx, *order); err != nil {
			c.logger.Warn("order paid event not published", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	c.logger.Info("order payment confirmed", zap.String("order_id", order.ID))
	return order, nil
}
