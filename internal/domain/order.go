package domain

import "time"

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

type OrderPaymentStatus string

const (
	OrderPaid            OrderPaymentStatus = "paid"
	OrderAwaitingPayment OrderPaymentStatus = "awaiting_payment"
)

// Address is a Brazilian postal address.
type Address struct {
	CEP          string `json:"cep" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
}

// OneLine renders the address the way the checkout form shows it.
func (a Address) OneLine() string {
	if a.Street == "" {
		return ""
	}
	return a.Street + ", " + a.Number + ", " + a.Neighborhood + ", " + a.City + " - " + a.State + ", " + a.CEP
}

type Order struct {
	ID             string             `json:"id"`
	SessionID      string             `json:"sessionId"`
	UserID         string             `json:"userId,omitempty"`
	Items          []CartItem         `json:"items"`
	Subtotal       Money              `json:"subtotalCents"`
	Shipping       Money              `json:"shippingCents"`
	Total          Money              `json:"totalCents"`
	ShippingMethod ShippingMethod     `json:"shippingMethod"`
	Customer       CustomerData       `json:"customer"`
	ShipTo         Address            `json:"shipTo"`
	PaymentMethod  PaymentMethod      `json:"paymentMethod"`
	PaymentStatus  OrderPaymentStatus `json:"paymentStatus"`
	Installments   int                `json:"installments,omitempty"`
	TransactionID  string             `json:"transactionId,omitempty"`
	PixCode        string             `json:"pixCode,omitempty"`
	BoletoURL      string             `json:"boletoUrl,omitempty"`
	BoletoDueDate  *time.Time         `json:"boletoDueDate,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}
