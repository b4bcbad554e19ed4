package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"lavibaby-storefront/internal/checkout"
)

func (h *handlers) startCheckout(c *gin.Context) {
	userID := ""
	if u := currentUser(c); u != nil {
		userID = u.ID
	}
	_, v, err := h.deps.Checkout.Start(c.Request.Context(), sessionID(c), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toCheckoutResponse(v))
}

func (h *handlers) getCheckout(c *gin.Context) {
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		return f.View(ctx)
	})
}

func (h *handlers) submitShipping(c *gin.Context) {
	var req checkout.ShippingInfo
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados de entrega inválidos")
		return
	}
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		return f.SubmitShipping(ctx, req)
	})
}

func (h *handlers) selectPayment(c *gin.Context) {
	var req checkout.PaymentSelection
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados de pagamento inválidos")
		return
	}
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		return f.SelectPayment(ctx, req)
	})
}

func (h *handlers) checkoutBack(c *gin.Context) {
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		return f.Back(ctx)
	})
}

// submitCheckout blocks until the gateway answers. A failed payment is a
// normal 200 response whose state is "failed".
func (h *handlers) submitCheckout(c *gin.Context) {
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		// A dropped connection must not abandon a charge half way; the
		// payment service timeout still bounds the attempt.
		return f.Submit(context.WithoutCancel(ctx))
	})
}

func (h *handlers) continueCheckout(c *gin.Context) {
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		return f.Continue(ctx)
	})
}

func (h *handlers) dismissCheckoutError(c *gin.Context) {
	h.withFlow(c, func(ctx context.Context, f *checkout.Flow) (checkout.View, error) {
		return f.DismissError(ctx)
	})
}

func (h *handlers) withFlow(c *gin.Context, fn func(context.Context, *checkout.Flow) (checkout.View, error)) {
	f, err := h.deps.Checkout.Get(sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	v, err := fn(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCheckoutResponse(v))
}
