// Package checkout drives the three-step checkout: shipping details, payment
// method, review and submission. A Flow belongs to one guest session; the
// Manager keeps one per session.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
	"lavibaby-storefront/internal/payment"
)

type State string

const (
	StateShipping   State = "shipping"
	StatePayment    State = "payment"
	StateReview     State = "review"
	StateProcessing State = "processing"
	StateApproved   State = "approved"
	StatePending    State = "pending_external_action"
	StateFailed     State = "failed"
)

// Step is the wizard step shown for the state.
func (s State) Step() int {
	switch s {
	case StateShipping:
		return 1
	case StatePayment:
		return 2
	default:
		return 3
	}
}

var (
	ErrIllegalTransition = errors.New("checkout: action not allowed in current state")
	ErrPaymentInFlight   = errors.New("checkout: payment already in progress")
	ErrEmptyCart         = errors.New("checkout: cart is empty")
)

// MsgCompletionFailed is shown when the payment went through but the order
// could not be recorded. Continue retries the recording.
const MsgCompletionFailed = "Pagamento aprovado, mas não conseguimos registrar seu pedido. Tente novamente."

type ShippingInfo struct {
	Name     string                `json:"name" validate:"required"`
	Email    string                `json:"email" validate:"required,email"`
	Phone    string                `json:"phone" validate:"required"`
	Document string                `json:"document,omitempty"`
	Address  domain.Address        `json:"address"`
	Method   domain.ShippingMethod `json:"method" validate:"required,oneof=standard express"`
}

type PaymentSelection struct {
	Method     domain.PaymentMethod `json:"method"`
	CreditCard *domain.CreditCard   `json:"creditCard,omitempty"`
}

// PaymentView is the selection as shown back to the shopper. Card data is
// reduced to brand and last digits.
type PaymentView struct {
	Method       domain.PaymentMethod `json:"method"`
	Installments int                  `json:"installments,omitempty"`
	CardBrand    string               `json:"cardBrand,omitempty"`
	CardNumber   string               `json:"cardNumber,omitempty"`
	HolderName   string               `json:"holderName,omitempty"`
}

type View struct {
	State         State                 `json:"state"`
	Step          int                   `json:"step"`
	Shipping      *ShippingInfo         `json:"shipping,omitempty"`
	Payment       *PaymentView          `json:"payment,omitempty"`
	Items         []domain.CartItem     `json:"items"`
	Quote         Quote                 `json:"quote"`
	Installments  []payment.Installment `json:"installments,omitempty"`
	Result        *domain.PaymentResult `json:"result,omitempty"`
	Error         string                `json:"error,omitempty"`
	OrderID       string                `json:"orderId,omitempty"`
	OrderComplete bool                  `json:"orderComplete"`

	// CompletionError is set while an approved order failed to be recorded.
	CompletionError string `json:"completionError,omitempty"`
}

type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, data domain.PaymentData) domain.PaymentResult
}

type CartSource interface {
	Items(ctx context.Context, sessionID string) ([]domain.CartItem, error)
}

type SettingsSource interface {
	Settings(ctx context.Context) (domain.SiteSettings, error)
}

// Completer runs the order-complete side effects.
type Completer interface {
	Complete(ctx context.Context, order domain.Order) error
}

type Deps struct {
	Payments  PaymentProcessor
	Cart      CartSource
	Settings  SettingsSource
	Completer Completer
	Logger    *zap.Logger
	// CompletionDelay separates an approved payment from the order-complete
	// callback. Zero runs the callback before Submit returns.
	CompletionDelay time.Duration
	Now             func() time.Time
}

type Flow struct {
	sessionID string
	userID    string
	deps      Deps
	validate  *validator.Validate

	mu        sync.Mutex
	state     State
	shipping  *ShippingInfo
	selection *PaymentSelection
	result    *domain.PaymentResult
	errMsg    string
	order     *domain.Order
	completed bool

	// completing is set while the order-complete callback is scheduled or
	// running.
	completing    bool
	completionErr string
}

func NewFlow(sessionID, userID string, deps Deps) *Flow {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Flow{
		sessionID: sessionID,
		userID:    userID,
		deps:      deps,
		validate:  validator.New(),
		state:     StateShipping,
	}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// SubmitShipping validates the delivery form and moves to the payment step.
// A ValidationError leaves the flow where it was.
func (f *Flow) SubmitShipping(ctx context.Context, in ShippingInfo) (View, error) {
	in = normalizeShipping(in)
	if err := f.validateShipping(in); err != nil {
		return View{}, err
	}

	f.mu.Lock()
	if f.state != StateShipping {
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	f.shipping = &in
	f.state = StatePayment
	f.mu.Unlock()

	return f.View(ctx)
}

// SelectPayment records the payment method and moves to review. Credit cards
// must pass the field checks and ask for an installment count on offer for
// the current total.
func (f *Flow) SelectPayment(ctx context.Context, sel PaymentSelection) (View, error) {
	if !sel.Method.Valid() {
		return View{}, domain.NewValidationError("method", "Selecione uma forma de pagamento")
	}
	if sel.Method != domain.PaymentCredit {
		sel.CreditCard = nil
	}

	f.mu.Lock()
	if f.state != StatePayment {
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	shipMethod := f.shipping.Method
	f.mu.Unlock()

	if sel.Method == domain.PaymentCredit {
		if err := payment.ValidateCardFields(sel.CreditCard, f.deps.Now()); err != nil {
			return View{}, err
		}
		_, quote, err := f.quote(ctx, shipMethod)
		if err != nil {
			return View{}, err
		}
		if sel.CreditCard.Installments > len(payment.CalculateInstallments(quote.Total)) {
			return View{}, domain.NewValidationError("installments", "Número de parcelas indisponível para este valor")
		}
	}

	f.mu.Lock()
	if f.state != StatePayment {
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	f.selection = &sel
	f.state = StateReview
	f.mu.Unlock()

	return f.View(ctx)
}

// Back returns to the previous step keeping everything entered.
func (f *Flow) Back(ctx context.Context) (View, error) {
	f.mu.Lock()
	switch f.state {
	case StatePayment:
		f.state = StateShipping
	case StateReview:
		f.state = StatePayment
	default:
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	f.mu.Unlock()
	return f.View(ctx)
}

// DismissError clears a failed attempt and returns to review for a manual
// retry.
func (f *Flow) DismissError(ctx context.Context) (View, error) {
	f.mu.Lock()
	if f.state != StateFailed {
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	f.state = StateReview
	f.result = nil
	f.errMsg = ""
	f.mu.Unlock()
	return f.View(ctx)
}

// Submit sends the payment. Only one attempt may be in flight; the flow lock
// is released while the gateway is called.
func (f *Flow) Submit(ctx context.Context) (view View, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.deps.Logger.Error("checkout submit panic recovered", zap.String("session_id", f.sessionID), zap.Any("panic", r))
			failed := domain.FailedResult(payment.MsgUnexpected)
			f.mu.Lock()
			f.state = StateFailed
			f.result = &failed
			f.errMsg = failed.Error
			f.mu.Unlock()
			view, err = f.View(ctx)
		}
	}()

	f.mu.Lock()
	switch f.state {
	case StateReview:
	case StateProcessing:
		f.mu.Unlock()
		return View{}, ErrPaymentInFlight
	default:
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	shipping := *f.shipping
	selection := *f.selection
	f.state = StateProcessing
	f.result = nil
	f.errMsg = ""
	f.mu.Unlock()

	items, quote, err := f.quote(ctx, shipping.Method)
	if err == nil && len(items) == 0 {
		err = ErrEmptyCart
	}
	if err == nil && selection.CreditCard != nil &&
		selection.CreditCard.Installments > len(payment.CalculateInstallments(quote.Total)) {
		// the cart changed since review
		err = domain.NewValidationError("installments", "Número de parcelas indisponível para este valor")
	}
	if err != nil {
		f.mu.Lock()
		f.state = StateReview
		f.mu.Unlock()
		return View{}, err
	}

	data := domain.PaymentData{
		Method:         selection.Method,
		Amount:         quote.Total,
		Customer:       customerData(shipping),
		CreditCard:     selection.CreditCard,
		IdempotencyKey: uuid.NewString(),
	}
	result := f.deps.Payments.ProcessPayment(ctx, data)

	f.mu.Lock()
	f.result = &result
	var order *domain.Order
	switch {
	case !result.Success:
		f.state = StateFailed
		f.errMsg = result.Error
		if f.errMsg == "" {
			f.errMsg = payment.MsgUnexpected
		}
	case result.Status == domain.PaymentApproved:
		f.state = StateApproved
		f.order = f.buildOrder(items, quote, shipping, selection, result, domain.OrderPaid)
		f.completing = true
		order = f.order
	default:
		f.state = StatePending
		f.order = f.buildOrder(items, quote, shipping, selection, result, domain.OrderAwaitingPayment)
	}
	f.mu.Unlock()

	f.deps.Logger.Info("checkout payment finished",
		zap.String("session_id", f.sessionID),
		zap.String("method", string(selection.Method)),
		zap.String("status", string(result.Status)),
		zap.Bool("success", result.Success),
	)

	if order != nil {
		f.scheduleCompletion(ctx, *order)
	}
	return f.View(ctx)
}

// Continue completes an order whose payment awaits PIX or boleto settlement.
// The order is recorded as awaiting payment; a later confirmation marks it
// paid. On an approved flow whose order failed to be recorded, Continue
// retries the recording.
func (f *Flow) Continue(ctx context.Context) (View, error) {
	f.mu.Lock()
	if f.order == nil || f.completed || f.completing ||
		(f.state != StatePending && f.state != StateApproved) {
		f.mu.Unlock()
		return View{}, ErrIllegalTransition
	}
	f.completing = true
	order := *f.order
	f.mu.Unlock()

	if err := f.complete(ctx, order); err != nil {
		return View{}, err
	}

	f.mu.Lock()
	f.state = StateApproved
	f.mu.Unlock()
	return f.View(ctx)
}

// View snapshots the flow for rendering, pricing the live cart.
func (f *Flow) View(ctx context.Context) (View, error) {
	f.mu.Lock()
	v := View{
		State:         f.state,
		Step:          f.state.Step(),
		Error:         f.errMsg,
		OrderComplete:   f.completed,
		CompletionError: f.completionErr,
	}
	if f.shipping != nil {
		s := *f.shipping
		v.Shipping = &s
	}
	if f.selection != nil {
		v.Payment = paymentView(*f.selection)
	}
	if f.result != nil {
		r := *f.result
		v.Result = &r
	}
	var ordered *domain.Order
	if f.order != nil {
		v.OrderID = f.order.ID
		o := *f.order
		ordered = &o
	}
	method := domain.ShippingStandard
	if f.shipping != nil {
		method = f.shipping.Method
	}
	f.mu.Unlock()

	if ordered != nil {
		// the cart may already be cleared; show what was bought
		v.Items = ordered.Items
		v.Quote = Quote{
			Subtotal:     ordered.Subtotal,
			Shipping:     ordered.Shipping,
			Total:        ordered.Total,
			Method:       ordered.ShippingMethod,
			FreeShipping: ordered.Shipping == 0,
		}
	} else {
		items, quote, err := f.quote(ctx, method)
		if err != nil {
			return View{}, err
		}
		v.Items = items
		v.Quote = quote
	}
	if v.Items == nil {
		v.Items = []domain.CartItem{}
	}
	if v.State == StatePayment || (v.Payment != nil && v.Payment.Method == domain.PaymentCredit) {
		v.Installments = payment.CalculateInstallments(v.Quote.Total)
	}
	return v, nil
}

func (f *Flow) scheduleCompletion(ctx context.Context, order domain.Order) {
	if f.deps.CompletionDelay <= 0 {
		if err := f.complete(ctx, order); err != nil {
			f.deps.Logger.Error("order completion failed", zap.String("order_id", order.ID), zap.Error(err))
		}
		return
	}
	bg := context.WithoutCancel(ctx)
	time.AfterFunc(f.deps.CompletionDelay, func() {
		if err := f.complete(bg, order); err != nil {
			f.deps.Logger.Error("order completion failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	})
}

// complete runs the order-complete callback. The caller sets f.completing.
func (f *Flow) complete(ctx context.Context, order domain.Order) (err error) {
	defer func() {
		f.mu.Lock()
		f.completing = false
		if err != nil {
			f.completionErr = MsgCompletionFailed
		} else {
			f.completed = true
			f.completionErr = ""
		}
		f.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("order completion panic: %v", r)
		}
	}()
	if f.deps.Completer != nil {
		return f.deps.Completer.Complete(ctx, order)
	}
	return nil
}

// holdsPayment reports whether replacing the flow would lose a payment: one
// in flight, or an approved one whose order is not recorded yet.
func (f *Flow) holdsPayment() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == StateProcessing || (f.state == StateApproved && f.order != nil && !f.completed)
}

func (f *Flow) buildOrder(items []domain.CartItem, quote Quote, shipping ShippingInfo, sel PaymentSelection, res domain.PaymentResult, status domain.OrderPaymentStatus) *domain.Order {
	o := &domain.Order{
		ID:             uuid.NewString(),
		SessionID:      f.sessionID,
		UserID:         f.userID,
		Items:          items,
		Subtotal:       quote.Subtotal,
		Shipping:       quote.Shipping,
		Total:          quote.Total,
		ShippingMethod: quote.Method,
		Customer:       customerData(shipping),
		ShipTo:         shipping.Address,
		PaymentMethod:  sel.Method,
		PaymentStatus:  status,
		TransactionID:  res.TransactionID,
		PixCode:        res.PixCode,
		BoletoURL:      res.BoletoURL,
		BoletoDueDate:  res.DueDate,
		CreatedAt:      f.deps.Now().UTC(),
	}
	if sel.CreditCard != nil {
		o.Installments = sel.CreditCard.Installments
	}
	return o
}

func (f *Flow) quote(ctx context.Context, method domain.ShippingMethod) ([]domain.CartItem, Quote, error) {
	items, err := f.deps.Cart.Items(ctx, f.sessionID)
	if err != nil {
		return nil, Quote{}, err
	}
	threshold := DefaultFreeShippingThreshold
	if f.deps.Settings != nil {
		s, err := f.deps.Settings.Settings(ctx)
		if err != nil {
			f.deps.Logger.Warn("settings unavailable, using default free shipping threshold", zap.Error(err))
		} else {
			threshold = s.FreeShippingMinValue
		}
	}
	return items, QuoteFor(items, method, threshold), nil
}

func (f *Flow) validateShipping(in ShippingInfo) error {
	if err := f.validate.Struct(in); err != nil {
		return shippingValidationError(err)
	}
	if len(format.Digits(in.Address.CEP)) != 8 {
		return domain.NewValidationError("cep", "CEP deve ter 8 dígitos")
	}
	if in.Document != "" && len(format.Digits(in.Document)) != 11 {
		return domain.NewValidationError("document", "CPF deve ter 11 dígitos")
	}
	return nil
}

func shippingValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if strings.Contains(fe.StructNamespace(), ".Address.") {
		return domain.NewValidationError("address", "Todos os campos de endereço são obrigatórios")
	}
	switch fe.StructField() {
	case "Name":
		return domain.NewValidationError("name", "Nome é obrigatório")
	case "Email":
		return domain.NewValidationError("email", "Email inválido")
	case "Phone":
		return domain.NewValidationError("phone", "Telefone é obrigatório")
	case "Method":
		return domain.NewValidationError("method", "Selecione um método de entrega")
	}
	return domain.NewValidationError(strings.ToLower(fe.Field()), "Preencha todos os campos obrigatórios")
}

func normalizeShipping(in ShippingInfo) ShippingInfo {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Document = strings.TrimSpace(in.Document)
	a := &in.Address
	a.CEP = format.CEP(a.CEP)
	a.Street = strings.TrimSpace(a.Street)
	a.Number = strings.TrimSpace(a.Number)
	a.Complement = strings.TrimSpace(a.Complement)
	a.Neighborhood = strings.TrimSpace(a.Neighborhood)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.ToUpper(strings.TrimSpace(a.State))
	return in
}

func customerData(s ShippingInfo) domain.CustomerData {
	return domain.CustomerData{
		Name:     s.Name,
		Email:    s.Email,
		Phone:    s.Phone,
		Document: s.Document,
		Address:  s.Address.OneLine(),
	}
}

func paymentView(sel PaymentSelection) *PaymentView {
	v := &PaymentView{Method: sel.Method}
	if c := sel.CreditCard; c != nil {
		v.Installments = c.Installments
		v.CardBrand = payment.CardBrand(c.Number)
		v.CardNumber = format.MaskCardNumber(c.Number)
		v.HolderName = c.HolderName
	}
	return v
}
