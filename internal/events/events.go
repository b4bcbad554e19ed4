// Package events announces order lifecycle changes to other services.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
)

const (
	TypeOrderCompleted = "order.completed"
	TypeOrderPaid      = "order.paid"
)

// OrderEvent is the JSON payload written for every order event.
type OrderEvent struct {
	Type          string                    `json:"type"`
	OrderID       string                    `json:"orderId"`
	SessionID     string                    `json:"sessionId"`
	UserID        string                    `json:"userId,omitempty"`
	TotalCents    int64                     `json:"totalCents"`
	PaymentMethod domain.PaymentMethod      `json:"paymentMethod"`
	PaymentStatus domain.OrderPaymentStatus `json:"paymentStatus"`
	TransactionID string                    `json:"transactionId,omitempty"`
	ItemCount     int                       `json:"itemCount"`
	OccurredAt    time.Time                 `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes order events to a single topic keyed by order id so
// events of one order stay ordered.
type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, errors.New("kafka publisher requires a topic")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, logger), nil
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{writer: w, logger: logger, now: time.Now}
}

func (p *KafkaPublisher) OrderCompleted(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, TypeOrderCompleted, o)
}

func (p *KafkaPublisher) OrderPaid(ctx context.Context, o domain.Order) error {
	return p.publish(ctx, TypeOrderPaid, o)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType string, o domain.Order) error {
	payload, err := json.Marshal(newOrderEvent(eventType, o, p.now().UTC()))
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	msg := kafka.Message{
		Key:   []byte(o.ID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s for order %s: %w", eventType, o.ID, err)
	}
	p.logger.Debug("event published", zap.String("type", eventType), zap.String("order_id", o.ID))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func newOrderEvent(eventType string, o domain.Order, at time.Time) OrderEvent {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return OrderEvent{
		Type:          eventType,
		OrderID:       o.ID,
		SessionID:     o.SessionID,
		UserID:        o.UserID,
		TotalCents:    int64(o.Total),
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		TransactionID: o.TransactionID,
		ItemCount:     count,
		OccurredAt:    at,
	}
}

// Noop logs events instead of publishing them. Used when no broker is
// configured.
type Noop struct {
	Logger *zap.Logger
}

func (n Noop) OrderCompleted(_ context.Context, o domain.Order) error {
	n.log(TypeOrderCompleted, o)
	return nil
}

func (n Noop) OrderPaid(_ context.Context, o domain.Order) error {
	n.log(TypeOrderPaid, o)
	return nil
}

func (n Noop) Close() error { return nil }

func (n Noop) log(eventType string, o domain.Order) {
	if n.Logger != nil {
		n.Logger.Debug("event dropped, no broker", zap.String("type", eventType), zap.String("order_id", o.ID))
	}
}
