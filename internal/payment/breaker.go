package payment

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
)

// BreakerGateway trips after consecutive transport failures so a dead
// provider fails fast instead of holding every checkout for the full timeout.
// Declines are answers, not failures, and never trip it.
type BreakerGateway struct {
	next Gateway
	cb   *gobreaker.CircuitBreaker[domain.PaymentResult]
}

type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func NewBreakerGateway(next Gateway, st BreakerSettings, logger *zap.Logger) *BreakerGateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st.ConsecutiveFailures == 0 {
		st.ConsecutiveFailures = 5
	}
	if st.OpenTimeout == 0 {
		st.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[domain.PaymentResult](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     st.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= st.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &BreakerGateway{next: next, cb: cb}
}

func (b *BreakerGateway) Process(ctx context.Context, data domain.PaymentData) (domain.PaymentResult, error) {
	return b.cb.Execute(func() (domain.PaymentResult, error) {
		return b.next.Process(ctx, data)
	})
}

func (b *BreakerGateway) State() gobreaker.State {
	return b.cb.State()
}
