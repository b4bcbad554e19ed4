package domain

import "time"

type PaymentMethod string

const (
	PaymentCredit PaymentMethod = "credit"
	PaymentPix    PaymentMethod = "pix"
	PaymentBoleto PaymentMethod = "boleto"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCredit, PaymentPix, PaymentBoleto:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentApproved PaymentStatus = "approved"
	PaymentPending  PaymentStatus = "pending"
	PaymentFailed   PaymentStatus = "failed"
)

type CustomerData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
	Address  string `json:"address"`
}

type CreditCard struct {
	Number       string `json:"number"`
	HolderName   string `json:"holderName"`
	ExpiryMonth  string `json:"expiryMonth"`
	ExpiryYear   string `json:"expiryYear"`
	CVV          string `json:"cvv"`
	Installments int    `json:"installments"`
}

type PaymentData struct {
	Method         PaymentMethod `json:"method"`
	Amount         Money         `json:"amountCents"`
	Customer       CustomerData  `json:"customerData"`
	CreditCard     *CreditCard   `json:"creditCard,omitempty"`
	IdempotencyKey string        `json:"idempotencyKey,omitempty"`
}

// PaymentResult is the outcome of one gateway attempt. Build it through the
// constructors below so each status only carries its own fields.
type PaymentResult struct {
	Success       bool          `json:"success"`
	Status        PaymentStatus `json:"status"`
	TransactionID string        `json:"transactionId,omitempty"`
	PixCode       string        `json:"pixCode,omitempty"`
	BoletoURL     string        `json:"boletoUrl,omitempty"`
	DueDate       *time.Time    `json:"dueDate,omitempty"`
	Error         string        `json:"error,omitempty"`
}

func ApprovedResult(transactionID string) PaymentResult {
	return PaymentResult{Success: true, Status: PaymentApproved, TransactionID: transactionID}
}

func PixPendingResult(transactionID, pixCode string) PaymentResult {
	return PaymentResult{Success: true, Status: PaymentPending, TransactionID: transactionID, PixCode: pixCode}
}

func BoletoPendingResult(transactionID, url string, due time.Time) PaymentResult {
	return PaymentResult{Success: true, Status: PaymentPending, TransactionID: transactionID, BoletoURL: url, DueDate: &due}
}

func FailedResult(msg string) PaymentResult {
	return PaymentResult{Success: false, Status: PaymentFailed, Error: msg}
}
