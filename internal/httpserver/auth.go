package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	accountsvc "lavibaby-storefront/internal/service/account"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// createSession starts a guest session. The token goes in X-Session-Token on
// every cart and checkout call.
func (h *handlers) createSession(c *gin.Context) {
	token, id, err := h.deps.SessionSvc.Issue(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"token":     token,
		"sessionId": id,
		"expiresIn": h.deps.SessionSvc.TTLSeconds(),
	})
}

func (h *handlers) register(c *gin.Context) {
	var req accountsvc.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Dados de cadastro inválidos")
		return
	}
	s, err := h.deps.AccountSvc.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Preencha email e senha")
		return
	}
	s, err := h.deps.AccountSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Preencha email e senha")
		return
	}
	s, err := h.deps.AccountSvc.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, accountsvc.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Credenciais inválidas. Tente novamente."})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *handlers) logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.deps.AccountSvc.Logout(c.Request.Context(), token); err != nil && !errors.Is(err, accountsvc.ErrInvalidToken) {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}
