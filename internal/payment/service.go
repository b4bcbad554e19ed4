// Package payment validates card data, lists installment options and submits
// payments to the gateway. ProcessPayment never returns an error or panics:
// every failure is folded into a failed PaymentResult.
package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"lavibaby-storefront/internal/domain"
)

const (
	MsgUnexpected         = "Ocorreu um erro inesperado. Tente novamente."
	MsgCardDeclined       = "Pagamento recusado. Verifique os dados do cartão e tente novamente."
	MsgInvalidMethod      = "Forma de pagamento inválida"
	MsgInvalidAmount      = "Valor do pagamento inválido"
	MsgGatewayUnavailable = "Serviço de pagamento indisponível. Tente novamente em instantes."
	MsgTimeout            = "Tempo esgotado ao processar o pagamento. Tente novamente."
	MsgCanceled           = "Pagamento cancelado"
)

type Config struct {
	// Latency is the artificial delay before the gateway is called.
	Latency time.Duration
	// Timeout bounds one attempt, latency included.
	Timeout time.Duration
	// ResultTTL is how long a result stays addressable by its idempotency key.
	ResultTTL time.Duration
}

type Service struct {
	gateway Gateway
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	flight  singleflight.Group
	mu      sync.Mutex
	results map[string]cachedResult
}

type cachedResult struct {
	result domain.PaymentResult
	at     time.Time
}

func NewService(gateway Gateway, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &Service{
		gateway: gateway,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		results: make(map[string]cachedResult),
	}
}

// ProcessPayment submits one payment attempt. Calls sharing an idempotency
// key get the first attempt's result; an empty key gets a fresh one.
func (s *Service) ProcessPayment(ctx context.Context, data domain.PaymentData) (result domain.PaymentResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("payment panic recovered", zap.Any("panic", r), zap.String("method", string(data.Method)))
			result = domain.FailedResult(MsgUnexpected)
		}
	}()

	if !data.Method.Valid() {
		return domain.FailedResult(MsgInvalidMethod)
	}
	if data.Amount <= 0 {
		return domain.FailedResult(MsgInvalidAmount)
	}
	if data.Method == domain.PaymentCredit {
		if err := ValidateCardFields(data.CreditCard, s.now()); err != nil {
			return domain.FailedResult(err.Error())
		}
	}
	if data.IdempotencyKey == "" {
		data.IdempotencyKey = uuid.NewString()
	}
	if cached, ok := s.cached(data.IdempotencyKey); ok {
		s.logger.Info("payment replayed", zap.String("idempotency_key", data.IdempotencyKey))
		return cached
	}

	v, _, _ := s.flight.Do(data.IdempotencyKey, func() (interface{}, error) {
		return s.attempt(ctx, data), nil
	})
	return v.(domain.PaymentResult)
}

func (s *Service) attempt(ctx context.Context, data domain.PaymentData) domain.PaymentResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	logger := s.logger.With(
		zap.String("idempotency_key", data.IdempotencyKey),
		zap.String("method", string(data.Method)),
		zap.Int64("amount_cents", int64(data.Amount)),
	)

	if err := sleep(ctx, s.cfg.Latency); err != nil {
		logger.Warn("payment aborted before gateway call", zap.Error(err))
		return domain.FailedResult(messageFor(err))
	}

	res, err := s.gateway.Process(ctx, data)
	if err != nil {
		logger.Error("payment gateway call failed", zap.Error(err))
		return domain.FailedResult(messageFor(err))
	}
	if !res.Success && res.Error == "" {
		res.Error = MsgCardDeclined
	}
	s.remember(data.IdempotencyKey, res)
	logger.Info("payment processed",
		zap.String("status", string(res.Status)),
		zap.String("transaction_id", res.TransactionID),
	)
	return res
}

func (s *Service) cached(key string) (domain.PaymentResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.results[key]
	if !ok || s.now().Sub(c.at) > s.cfg.ResultTTL {
		return domain.PaymentResult{}, false
	}
	return c.result, true
}

func (s *Service) remember(key string, res domain.PaymentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, c := range s.results {
		if now.Sub(c.at) > s.cfg.ResultTTL {
			delete(s.results, k)
		}
	}
	s.results[key] = cachedResult{result: res, at: now}
}

func messageFor(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return MsgGatewayUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case errors.Is(err, context.Canceled):
		return MsgCanceled
	default:
		return MsgUnexpected
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("payment latency: %w", ctx.Err())
	case <-t.C:
		return nil
	}
}
