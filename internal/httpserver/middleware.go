package httpserver

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lavibaby-storefront/internal/domain"
	accountsvc "lavibaby-storefront/internal/service/account"
	sessionsvc "lavibaby-storefront/internal/service/session"
)

const (
	sessionHeader   = "X-Session-Token"
	signatureHeader = "X-Webhook-Signature"
	sessionCtxKey   = "sessionID"
	userCtxKey      = "user"
	tokenCtxKey     = "accessToken"

	maxWebhookBody = 64 << 10
)

// sessionMiddleware resolves the guest session owning the cart and checkout.
func sessionMiddleware(sessions sessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(sessionHeader))
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "Sessão ausente. Crie uma sessão em POST /sessions.")
			return
		}
		sessionID, err := sessions.Lookup(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, sessionsvc.ErrInvalidToken) {
				abortJSON(c, http.StatusUnauthorized, "Sessão inválida ou expirada")
				return
			}
			_ = c.Error(err)
			abortJSON(c, http.StatusInternalServerError, msgUnexpected)
			return
		}
		c.Set(sessionCtxKey, sessionID)
		c.Next()
	}
}

// optionalUser attaches the signed-in user when a valid bearer token is sent.
// Guests pass through untouched.
func optionalUser(accounts accountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if u, err := accounts.Authenticate(c.Request.Context(), token); err == nil {
				c.Set(userCtxKey, u)
				c.Set(tokenCtxKey, token)
			}
		}
		c.Next()
	}
}

func requireUser(accounts accountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			abortJSON(c, http.StatusUnauthorized, "Faça login para continuar")
			return
		}
		u, err := accounts.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, accountsvc.ErrInvalidToken) {
				abortJSON(c, http.StatusUnauthorized, "Sessão expirada. Faça login novamente.")
				return
			}
			_ = c.Error(err)
			abortJSON(c, http.StatusInternalServerError, msgUnexpected)
			return
		}
		c.Set(userCtxKey, u)
		c.Set(tokenCtxKey, token)
		c.Next()
	}
}

// requireAdmin must run after requireUser.
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil || u.Role != domain.RoleAdmin {
			abortJSON(c, http.StatusForbidden, "Acesso restrito ao administrador")
			return
		}
		c.Next()
	}
}

// requireSignature accepts a request only when the signature header carries
// the hex HMAC-SHA256 of the raw body under secret. An empty secret rejects
// everything.
func requireSignature(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			abortJSON(c, http.StatusServiceUnavailable, "Notificações de pagamento desativadas")
			return
		}
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			abortJSON(c, http.StatusBadRequest, "Notificação inválida")
			return
		}
		got, err := hex.DecodeString(strings.TrimSpace(c.GetHeader(signatureHeader)))
		if err != nil || !hmac.Equal(got, signBody(secret, body)) {
			abortJSON(c, http.StatusUnauthorized, "Assinatura inválida")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		c.Next()
	}
}

func signBody(secret string, body []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionCtxKey)
}

func currentUser(c *gin.Context) *domain.User {
	v, ok := c.Get(userCtxKey)
	if !ok {
		return nil
	}
	u, _ := v.(*domain.User)
	return u
}

func abortJSON(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
