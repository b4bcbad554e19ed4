package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/format"
	"lavibaby-storefront/internal/payment"
)

func (h *handlers) installments(c *gin.Context) {
	total, err := domain.ParseMoney(c.Query("total"))
	if err != nil || total <= 0 {
		badRequest(c, payment.MsgInvalidAmount)
		return
	}
	options := payment.CalculateInstallments(total)
	c.JSON(http.StatusOK, gin.H{"installments": options})
}

type validateCardRequest struct {
	Number string `json:"number"`
}

func (h *handlers) validateCard(c *gin.Context) {
	var req validateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Número do cartão é obrigatório")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  payment.ValidateCreditCard(req.Number),
		"brand":  payment.CardBrand(req.Number),
		"masked": format.MaskCardNumber(req.Number),
	})
}

type webhookRequest struct {
	OrderID       string `json:"orderId" binding:"required"`
	TransactionID string `json:"transactionId" binding:"required"`
	Status        string `json:"status" binding:"required"`
}

// paymentWebhook receives the provider's settlement notice for PIX and
// boleto orders. Only "paid" moves an order; other statuses are acknowledged.
func (h *handlers) paymentWebhook(c *gin.Context) {
	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Notificação inválida")
		return
	}
	if req.Status != string(domain.OrderPaid) {
		h.logger.Info("payment webhook ignored", zap.String("order_id", req.OrderID), zap.String("status", req.Status))
		c.JSON(http.StatusAccepted, gin.H{"status": "ignored"})
		return
	}
	order, err := h.deps.Payments.ConfirmPayment(c.Request.Context(), req.OrderID, req.TransactionID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orderId": order.ID, "paymentStatus": order.PaymentStatus})
}

func (h *handlers) boletoPDF(c *gin.Context) {
	ctx := c.Request.Context()
	order, err := h.deps.Orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	// Another session's order reads as missing.
	if order.SessionID != sessionID(c) || order.PaymentMethod != domain.PaymentBoleto {
		h.writeError(c, domain.ErrNotFound)
		return
	}
	settings, err := h.deps.AccountSvc.Settings(ctx)
	if err != nil {
		h.writeError(c, err)
		return
	}
	pdf, err := payment.RenderBoletoPDF(*order, settings.CompanyName)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="boleto-%s.pdf"`, order.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
