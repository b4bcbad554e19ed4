package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "lavibaby-storefront/internal/service/cart"
)

type updateCartItemRequest struct {
	Size     string `json:"size"`
	Quantity *int   `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	v, err := h.deps.CartSvc.Get(c.Request.Context(), sessionID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req cartsvc.AddInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Item inválido")
		return
	}
	v, err := h.deps.CartSvc.Add(c.Request.Context(), sessionID(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

// updateCartItem sets the quantity of one line. Zero or less removes it.
func (h *handlers) updateCartItem(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "Quantidade é obrigatória")
		return
	}
	v, err := h.deps.CartSvc.UpdateQuantity(c.Request.Context(), sessionID(c), id, req.Size, *req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *handlers) removeCartItem(c *gin.Context) {
	id, ok := pathID(c, "productId")
	if !ok {
		return
	}
	v, err := h.deps.CartSvc.Remove(c.Request.Context(), sessionID(c), id, c.Query("size"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toCartResponse(v))
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.deps.CartSvc.Clear(c.Request.Context(), sessionID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
