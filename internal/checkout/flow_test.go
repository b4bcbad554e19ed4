package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCart struct {
	mu    sync.Mutex
	items []domain.CartItem
	err   error
}

func (s *stubCart) Items(_ context.Context, _ string) ([]domain.CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

type stubPayments struct {
	calls   atomic.Int32
	result  domain.PaymentResult
	started chan struct{}
	release chan struct{}
	panics  bool
	last    domain.PaymentData
}

func (s *stubPayments) ProcessPayment(_ context.Context, data domain.PaymentData) domain.PaymentResult {
	s.calls.Add(1)
	s.last = data
	if s.panics {
		panic("gateway exploded")
	}
	if s.started != nil {
		close(s.started)
	}
	if s.release != nil {
		<-s.release
	}
	return s.result
}

type stubCompleter struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (s *stubCompleter) Complete(_ context.Context, order domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, order)
	return nil
}

func (s *stubCompleter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type stubSettings struct {
	settings domain.SiteSettings
}

func (s stubSettings) Settings(context.Context) (domain.SiteSettings, error) {
	return s.settings, nil
}

type fixture struct {
	cart      *stubCart
	payments  *stubPayments
	completer *stubCompleter
	flow      *Flow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		cart: &stubCart{items: []domain.CartItem{
			{ProductID: 1, Name: "Vestido", UnitPrice: 5000, Quantity: 2, Size: "4"},
			{ProductID: 2, Name: "Conjunto", UnitPrice: 3000, Quantity: 1, Size: "M"},
		}},
		payments:  &stubPayments{result: domain.ApprovedResult("TXN-1")},
		completer: &stubCompleter{},
	}
	fx.flow = NewFlow("sess-1", "", Deps{
		Payments:  fx.payments,
		Cart:      fx.cart,
		Completer: fx.completer,
		Now:       func() time.Time { return time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC) },
	})
	return fx
}

func shippingInfo() ShippingInfo {
	return ShippingInfo{
		Name:  "Maria Silva",
		Email: "maria@example.com",
		Phone: "(11) 99999-9999",
		Address: domain.Address{
			CEP:          "01310100",
			Street:       "Avenida Paulista",
			Number:       "1000",
			Neighborhood: "Bela Vista",
			City:         "São Paulo",
			State:        "sp",
		},
		Method: domain.ShippingStandard,
	}
}

func creditSelection() PaymentSelection {
	return PaymentSelection{
		Method: domain.PaymentCredit,
		CreditCard: &domain.CreditCard{
			Number:       "4111 1111 1111 1111",
			HolderName:   "MARIA SILVA",
			ExpiryMonth:  "12",
			ExpiryYear:   "30",
			CVV:          "123",
			Installments: 3,
		},
	}
}

func (fx *fixture) toReview(t *testing.T, sel PaymentSelection) {
	t.Helper()
	ctx := context.Background()
	_, err := fx.flow.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)
	_, err = fx.flow.SelectPayment(ctx, sel)
	require.NoError(t, err)
	require.Equal(t, StateReview, fx.flow.State())
}

func TestFlow_CreditApprovedCompletesOrder(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	v, err := fx.flow.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateShipping, v.State)
	assert.Equal(t, 1, v.Step)

	v, err = fx.flow.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)
	assert.Equal(t, StatePayment, v.State)
	assert.Equal(t, "01310-100", v.Shipping.Address.CEP)
	assert.Equal(t, "SP", v.Shipping.Address.State)
	assert.NotEmpty(t, v.Installments)

	v, err = fx.flow.SelectPayment(ctx, creditSelection())
	require.NoError(t, err)
	assert.Equal(t, StateReview, v.State)
	assert.Equal(t, payment.BrandVisa, v.Payment.CardBrand)
	assert.Equal(t, "************1111", v.Payment.CardNumber)
	assert.Equal(t, domain.Money(13990), v.Quote.Total)

	v, err = fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, v.State)
	assert.True(t, v.OrderComplete)
	assert.NotEmpty(t, v.OrderID)

	assert.Equal(t, domain.Money(13990), fx.payments.last.Amount)
	assert.NotEmpty(t, fx.payments.last.IdempotencyKey)

	require.Equal(t, 1, fx.completer.count())
	order := fx.completer.orders[0]
	assert.Equal(t, v.OrderID, order.ID)
	assert.Equal(t, domain.OrderPaid, order.PaymentStatus)
	assert.Equal(t, domain.Money(13000), order.Subtotal)
	assert.Equal(t, domain.Money(990), order.Shipping)
	assert.Equal(t, domain.Money(13990), order.Total)
	assert.Equal(t, 3, order.Installments)
	assert.Equal(t, "TXN-1", order.TransactionID)
	assert.Equal(t, "sess-1", order.SessionID)
}

func TestFlow_ShippingValidationKeepsState(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ShippingInfo)
		field  string
	}{
		{"missing name", func(s *ShippingInfo) { s.Name = "  " }, "name"},
		{"bad email", func(s *ShippingInfo) { s.Email = "maria" }, "email"},
		{"missing phone", func(s *ShippingInfo) { s.Phone = "" }, "phone"},
		{"missing street", func(s *ShippingInfo) { s.Address.Street = "" }, "address"},
		{"short cep", func(s *ShippingInfo) { s.Address.CEP = "0131010" }, "cep"},
		{"bad method", func(s *ShippingInfo) { s.Method = "drone" }, "method"},
		{"bad document", func(s *ShippingInfo) { s.Document = "123" }, "document"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fx := newFixture(t)
			in := shippingInfo()
			tc.mutate(&in)
			_, err := fx.flow.SubmitShipping(context.Background(), in)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.NotEmpty(t, verr.Message)
			assert.Equal(t, StateShipping, fx.flow.State())
		})
	}
}

func TestFlow_SelectPaymentValidation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.flow.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)

	_, err = fx.flow.SelectPayment(ctx, PaymentSelection{Method: "cheque"})
	assert.Error(t, err)

	sel := creditSelection()
	sel.CreditCard.Number = "4111 1111 1111 1112"
	_, err = fx.flow.SelectPayment(ctx, sel)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "number", verr.Field)
	assert.Equal(t, StatePayment, fx.flow.State())

	_, err = fx.flow.SelectPayment(ctx, PaymentSelection{Method: domain.PaymentCredit})
	assert.Error(t, err)
	assert.Equal(t, StatePayment, fx.flow.State())
}

func TestFlow_InstallmentsLimitedByTotal(t *testing.T) {
	fx := newFixture(t)
	fx.cart.items = []domain.CartItem{{ProductID: 4, Name: "Meia", UnitPrice: 1000, Quantity: 1}}
	ctx := context.Background()
	_, err := fx.flow.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)

	// 19,90 allows at most 3x of R$ 6,63
	sel := creditSelection()
	sel.CreditCard.Installments = 4
	_, err = fx.flow.SelectPayment(ctx, sel)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "installments", verr.Field)

	sel.CreditCard.Installments = 3
	_, err = fx.flow.SelectPayment(ctx, sel)
	require.NoError(t, err)
}

func TestFlow_BackRetainsData(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.toReview(t, creditSelection())

	v, err := fx.flow.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePayment, v.State)
	require.NotNil(t, v.Payment)
	assert.Equal(t, domain.PaymentCredit, v.Payment.Method)

	v, err = fx.flow.Back(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateShipping, v.State)
	require.NotNil(t, v.Shipping)
	assert.Equal(t, "Maria Silva", v.Shipping.Name)

	_, err = fx.flow.Back(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFlow_FailedCreditStaysOutOfApproved(t *testing.T) {
	fx := newFixture(t)
	fx.payments.result = domain.FailedResult("Pagamento recusado")
	ctx := context.Background()
	fx.toReview(t, creditSelection())

	v, err := fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "Pagamento recusado", v.Error)
	assert.False(t, v.OrderComplete)
	assert.Empty(t, v.OrderID)
	assert.Zero(t, fx.completer.count())

	v, err = fx.flow.DismissError(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateReview, v.State)
	assert.Empty(t, v.Error)
	assert.Equal(t, "Maria Silva", v.Shipping.Name)
	assert.Equal(t, domain.PaymentCredit, v.Payment.Method)

	// manual retry succeeds
	fx.payments.result = domain.ApprovedResult("TXN-2")
	v, err = fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, v.State)
	assert.Equal(t, int32(2), fx.payments.calls.Load())
}

func TestFlow_PixPendingThenContinue(t *testing.T) {
	fx := newFixture(t)
	fx.payments.result = domain.PixPendingResult("PIX-1", "00020101...6304ABCD")
	ctx := context.Background()
	fx.toReview(t, PaymentSelection{Method: domain.PaymentPix})

	v, err := fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatePending, v.State)
	require.NotNil(t, v.Result)
	assert.Equal(t, "00020101...6304ABCD", v.Result.PixCode)
	assert.Zero(t, fx.completer.count())
	assert.Empty(t, v.Installments)

	v, err = fx.flow.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, v.State)
	assert.True(t, v.OrderComplete)
	require.Equal(t, 1, fx.completer.count())
	assert.Equal(t, domain.OrderAwaitingPayment, fx.completer.orders[0].PaymentStatus)
	assert.Equal(t, "00020101...6304ABCD", fx.completer.orders[0].PixCode)
}

func TestFlow_ContinueFailureStaysPending(t *testing.T) {
	fx := newFixture(t)
	fx.payments.result = domain.PixPendingResult("PIX-1", "code")
	fx.completer.err = errors.New("db down")
	ctx := context.Background()
	fx.toReview(t, PaymentSelection{Method: domain.PaymentPix})

	_, err := fx.flow.Submit(ctx)
	require.NoError(t, err)
	_, err = fx.flow.Continue(ctx)
	require.Error(t, err)
	assert.Equal(t, StatePending, fx.flow.State())
}

func TestFlow_SecondSubmitRejectedWhileProcessing(t *testing.T) {
	fx := newFixture(t)
	fx.payments.started = make(chan struct{})
	fx.payments.release = make(chan struct{})
	ctx := context.Background()
	fx.toReview(t, creditSelection())

	done := make(chan View)
	go func() {
		v, err := fx.flow.Submit(ctx)
		assert.NoError(t, err)
		done <- v
	}()
	<-fx.payments.started

	assert.Equal(t, StateProcessing, fx.flow.State())
	_, err := fx.flow.Submit(ctx)
	assert.ErrorIs(t, err, ErrPaymentInFlight)
	_, err = fx.flow.Back(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	close(fx.payments.release)
	v := <-done
	assert.Equal(t, StateApproved, v.State)
	assert.Equal(t, int32(1), fx.payments.calls.Load())
}

func TestFlow_EmptyCart(t *testing.T) {
	fx := newFixture(t)
	fx.toReview(t, PaymentSelection{Method: domain.PaymentBoleto})
	fx.cart.items = nil

	_, err := fx.flow.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, StateReview, fx.flow.State())
	assert.Zero(t, fx.payments.calls.Load())
}

func TestFlow_PanicBecomesGenericFailure(t *testing.T) {
	fx := newFixture(t)
	fx.payments.panics = true
	fx.toReview(t, PaymentSelection{Method: domain.PaymentPix})

	v, err := fx.flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateFailed, v.State)
	assert.Equal(t, "Ocorreu um erro inesperado. Tente novamente.", v.Error)
}

func TestFlow_IllegalTransitions(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.flow.Submit(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = fx.flow.SelectPayment(ctx, PaymentSelection{Method: domain.PaymentPix})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = fx.flow.Continue(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = fx.flow.DismissError(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	fx.toReview(t, PaymentSelection{Method: domain.PaymentPix})
	_, err = fx.flow.SubmitShipping(ctx, shippingInfo())
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFlow_DelayedCompletion(t *testing.T) {
	fx := newFixture(t)
	fx.flow.deps.CompletionDelay = 20 * time.Millisecond
	fx.toReview(t, creditSelection())

	v, err := fx.flow.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateApproved, v.State)
	assert.False(t, v.OrderComplete)

	require.Eventually(t, func() bool { return fx.completer.count() == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		v, err := fx.flow.View(context.Background())
		return err == nil && v.OrderComplete
	}, time.Second, 5*time.Millisecond)
}

func TestFlow_FreeShippingThresholdFromSettings(t *testing.T) {
	fx := newFixture(t)
	settings := domain.DefaultSiteSettings()
	settings.FreeShippingMinValue = 10000
	fx.flow.deps.Settings = stubSettings{settings: settings}

	v, err := fx.flow.SubmitShipping(context.Background(), shippingInfo())
	require.NoError(t, err)
	assert.True(t, v.Quote.FreeShipping)
	assert.Equal(t, domain.Money(13000), v.Quote.Total)
}

func TestManager_StartAndGet(t *testing.T) {
	cart := &stubCart{items: []domain.CartItem{{ProductID: 1, UnitPrice: 100, Quantity: 1}}}
	m := NewManager(Deps{Payments: &stubPayments{}, Cart: cart})
	ctx := context.Background()

	_, err := m.Get("s1")
	assert.ErrorIs(t, err, ErrNoCheckout)

	f, v, err := m.Start(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, StateShipping, v.State)

	_, err = f.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)

	// restarting begins at step one again
	f2, v, err := m.Start(ctx, "s1", "")
	require.NoError(t, err)
	assert.Equal(t, StateShipping, v.State)
	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Same(t, f2, got)

	m.Drop("s1")
	_, err = m.Get("s1")
	assert.ErrorIs(t, err, ErrNoCheckout)
}

func TestManager_StartRefusedWhileProcessing(t *testing.T) {
	cart := &stubCart{items: []domain.CartItem{{ProductID: 1, UnitPrice: 100, Quantity: 1}}}
	payments := &stubPayments{result: domain.ApprovedResult("T"), started: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Deps{Payments: payments, Cart: cart})
	ctx := context.Background()

	f, _, err := m.Start(ctx, "s1", "")
	require.NoError(t, err)
	_, err = f.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)
	_, err = f.SelectPayment(ctx, PaymentSelection{Method: domain.PaymentPix})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.Submit(ctx)
	}()
	<-payments.started

	_, _, err = m.Start(ctx, "s1", "")
	assert.ErrorIs(t, err, ErrPaymentInFlight)

	close(payments.release)
	<-done
}

func TestFlow_ApprovedOrderRecordingCanBeRetried(t *testing.T) {
	fx := newFixture(t)
	fx.completer.err = errors.New("db down")
	ctx := context.Background()
	fx.toReview(t, creditSelection())

	v, err := fx.flow.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, v.State)
	assert.False(t, v.OrderComplete)
	assert.Equal(t, MsgCompletionFailed, v.CompletionError)
	assert.Zero(t, fx.completer.count())

	// still failing: nothing recorded, retry stays available
	_, err = fx.flow.Continue(ctx)
	require.Error(t, err)
	_, err = fx.flow.Submit(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	fx.completer.mu.Lock()
	fx.completer.err = nil
	fx.completer.mu.Unlock()

	v, err = fx.flow.Continue(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateApproved, v.State)
	assert.True(t, v.OrderComplete)
	assert.Empty(t, v.CompletionError)
	require.Equal(t, 1, fx.completer.count())
	assert.Equal(t, domain.OrderPaid, fx.completer.orders[0].PaymentStatus)
	assert.Equal(t, int32(1), fx.payments.calls.Load())

	_, err = fx.flow.Continue(ctx)
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFlow_ZeroThresholdMakesStandardShippingFree(t *testing.T) {
	fx := newFixture(t)
	settings := domain.DefaultSiteSettings()
	settings.FreeShippingMinValue = 0
	fx.flow.deps.Settings = stubSettings{settings: settings}

	v, err := fx.flow.SubmitShipping(context.Background(), shippingInfo())
	require.NoError(t, err)
	assert.True(t, v.Quote.FreeShipping)
	assert.Equal(t, domain.Money(0), v.Quote.Shipping)
	assert.Equal(t, domain.Money(13000), v.Quote.Total)
}

func TestFlow_SubmitRechecksInstallmentsAgainstCurrentTotal(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	sel := creditSelection()
	sel.CreditCard.Installments = 12
	fx.toReview(t, sel)

	// cart shrinks after review: 1990 only allows 3 installments
	fx.cart.mu.Lock()
	fx.cart.items = []domain.CartItem{{ProductID: 1, Name: "Meias", UnitPrice: 1000, Quantity: 1}}
	fx.cart.mu.Unlock()

	_, err := fx.flow.Submit(ctx)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "installments", verr.Field)
	assert.Equal(t, StateReview, fx.flow.State())
	assert.Zero(t, fx.payments.calls.Load())
}

func TestManager_StartKeepsApprovedFlowWithUnrecordedOrder(t *testing.T) {
	cart := &stubCart{items: []domain.CartItem{{ProductID: 1, UnitPrice: 5000, Quantity: 1}}}
	completer := &stubCompleter{err: errors.New("db down")}
	m := NewManager(Deps{Payments: &stubPayments{result: domain.ApprovedResult("T")}, Cart: cart, Completer: completer})
	ctx := context.Background()

	f, _, err := m.Start(ctx, "s1", "")
	require.NoError(t, err)
	_, err = f.SubmitShipping(ctx, shippingInfo())
	require.NoError(t, err)
	_, err = f.SelectPayment(ctx, creditSelection())
	require.NoError(t, err)
	_, err = f.Submit(ctx)
	require.NoError(t, err)

	_, _, err = m.Start(ctx, "s1", "")
	assert.ErrorIs(t, err, ErrPaymentInFlight)
	m.Drop("s1")
	got, err := m.Get("s1")
	require.NoError(t, err)
	assert.Same(t, f, got)
}
