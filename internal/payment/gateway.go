package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lavibaby-storefront/internal/domain"
)

// Gateway is the payment provider boundary. Implementations return a
// PaymentResult for answers the provider gave (approved, pending or declined)
// and an error only when the provider could not be reached.
type Gateway interface {
	Process(ctx context.Context, data domain.PaymentData) (domain.PaymentResult, error)
}

// SimulatedGateway approves valid cards and issues PIX codes and boleto links
// without talking to a provider.
type SimulatedGateway struct {
	Pix           PixPayee
	BoletoBaseURL string
	Now           func() time.Time
	NewID         func() string
}

func NewSimulatedGateway(pix PixPayee, boletoBaseURL string) *SimulatedGateway {
	return &SimulatedGateway{
		Pix:           pix,
		BoletoBaseURL: strings.TrimRight(boletoBaseURL, "/"),
		Now:           time.Now,
		NewID:         func() string { return uuid.NewString() },
	}
}

func (g *SimulatedGateway) Process(ctx context.Context, data domain.PaymentData) (domain.PaymentResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentResult{}, err
	}
	id := g.NewID()
	switch data.Method {
	case domain.PaymentCredit:
		if data.CreditCard == nil || !ValidateCreditCard(data.CreditCard.Number) {
			return domain.FailedResult(MsgCardDeclined), nil
		}
		return domain.ApprovedResult("TXN-" + id), nil
	case domain.PaymentPix:
		txn := "PIX-" + id
		return domain.PixPendingResult(txn, BuildPixCode(g.Pix, data.Amount, txn)), nil
	case domain.PaymentBoleto:
		due := AddBusinessDays(g.Now(), BoletoBusinessDays)
		return domain.BoletoPendingResult("BOL-"+id, fmt.Sprintf("%s/boletos/%s", g.BoletoBaseURL, id), due), nil
	default:
		return domain.FailedResult(MsgInvalidMethod), nil
	}
}
