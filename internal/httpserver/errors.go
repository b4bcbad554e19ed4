package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cartstore "lavibaby-storefront/internal/cart"
	"lavibaby-storefront/internal/checkout"
	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/payment"
	"lavibaby-storefront/internal/postal"
	accountsvc "lavibaby-storefront/internal/service/account"
	cartsvc "lavibaby-storefront/internal/service/cart"
)

const msgUnexpected = payment.MsgUnexpected

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeError maps service errors to status codes and the message the
// storefront shows. Unknown errors are logged and hidden behind the generic
// message.
func (h *handlers) writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	status, msg := http.StatusInternalServerError, msgUnexpected
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
		return
	case errors.Is(err, domain.ErrNotFound):
		status, msg = http.StatusNotFound, "Não encontrado"
	case errors.Is(err, checkout.ErrNoCheckout):
		status, msg = http.StatusNotFound, "Nenhum checkout em andamento"
	case errors.Is(err, cartstore.ErrInvalidQuantity):
		status, msg = http.StatusBadRequest, "Quantidade inválida"
	case errors.Is(err, cartstore.ErrInvalidProduct):
		status, msg = http.StatusBadRequest, "Produto inválido"
	case errors.Is(err, cartsvc.ErrOutOfStock):
		status, msg = http.StatusConflict, "Produto esgotado"
	case errors.Is(err, checkout.ErrEmptyCart):
		status, msg = http.StatusBadRequest, "Seu carrinho está vazio"
	case errors.Is(err, checkout.ErrPaymentInFlight):
		status, msg = http.StatusConflict, "Pagamento em processamento. Aguarde."
	case errors.Is(err, checkout.ErrIllegalTransition):
		status, msg = http.StatusConflict, "Ação indisponível nesta etapa"
	case errors.Is(err, checkout.ErrAlreadyPaid):
		status, msg = http.StatusConflict, "Pedido já está pago"
	case errors.Is(err, payment.ErrNotBoleto):
		status, msg = http.StatusBadRequest, "Pedido não foi pago com boleto"
	case errors.Is(err, postal.ErrInvalidCEP):
		status, msg = http.StatusBadRequest, "CEP inválido"
	case errors.Is(err, postal.ErrUpstream):
		status, msg = http.StatusBadGateway, "Não foi possível consultar o CEP. Preencha o endereço manualmente."
	case errors.Is(err, accountsvc.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Email ou senha incorretos"
	case errors.Is(err, accountsvc.ErrInvalidToken):
		status, msg = http.StatusUnauthorized, "Sessão expirada. Faça login novamente."
	default:
		h.logger.Error("http: unhandled error", zap.String("path", c.Request.URL.Path), zap.Error(err))
		_ = c.Error(err)
	}
	c.JSON(status, errorResponse{Error: msg})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
