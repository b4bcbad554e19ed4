package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/checkout"
	"lavibaby-storefront/internal/domain"
	"lavibaby-storefront/internal/logging"
	accountsvc "lavibaby-storefront/internal/service/account"
	cartsvc "lavibaby-storefront/internal/service/cart"
)

type productService interface {
	List(ctx context.Context, category string) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Save(ctx context.Context, p domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

type cartService interface {
	Get(ctx context.Context, sessionID string) (cartsvc.View, error)
	Add(ctx context.Context, sessionID string, in cartsvc.AddInput) (cartsvc.View, error)
	UpdateQuantity(ctx context.Context, sessionID string, productID int64, size string, qty int) (cartsvc.View, error)
	Remove(ctx context.Context, sessionID string, productID int64, size string) (cartsvc.View, error)
	Clear(ctx context.Context, sessionID string) error
}

type sessionService interface {
	Issue(ctx context.Context) (token, sessionID string, err error)
	Lookup(ctx context.Context, token string) (string, error)
	TTLSeconds() int
}

type checkoutManager interface {
	Start(ctx context.Context, sessionID, userID string) (*checkout.Flow, checkout.View, error)
	Get(sessionID string) (*checkout.Flow, error)
}

type accountService interface {
	Register(ctx context.Context, in accountsvc.RegisterInput) (*accountsvc.Session, error)
	Login(ctx context.Context, email, password string) (*accountsvc.Session, error)
	AdminLogin(ctx context.Context, email, password string) (*accountsvc.Session, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	Settings(ctx context.Context) (domain.SiteSettings, error)
	UpdateSettings(ctx context.Context, s domain.SiteSettings) (domain.SiteSettings, error)
}

type postalService interface {
	Lookup(ctx context.Context, cep string) (domain.Address, error)
}

type orderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, orderID, transactionID string) (*domain.Order, error)
}

// Deps carries the services the HTTP layer talks to.
type Deps struct {
	ProductSvc  productService
	CartSvc     cartService
	SessionSvc  sessionService
	Checkout    checkoutManager
	AccountSvc  accountService
	Postal      postalService
	Orders      orderReader
	Payments    paymentConfirmer
	CORSOrigins []string
	// WebhookSecret signs payment notifications. Empty disables the webhook.
	WebhookSecret string
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

func (d Deps) validate() error {
	switch {
	case d.ProductSvc == nil:
		return errors.New("product service is required")
	case d.CartSvc == nil:
		return errors.New("cart service is required")
	case d.SessionSvc == nil:
		return errors.New("session service is required")
	case d.Checkout == nil:
		return errors.New("checkout manager is required")
	case d.AccountSvc == nil:
		return errors.New("account service is required")
	case d.Postal == nil:
		return errors.New("postal service is required")
	case d.Orders == nil:
		return errors.New("order reader is required")
	case d.Payments == nil:
		return errors.New("payment confirmer is required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(logging.GinLogger(logger), logging.GinRecovery(logger))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", sessionHeader},
			ExposeHeaders:    []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Ready))

	router.POST("/sessions", h.createSession)

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/categories", h.listCategories)
	router.GET("/settings", h.getSettings)
	router.GET("/postal/:cep", h.lookupPostal)

	payments := router.Group("/payments")
	payments.GET("/installments", h.installments)
	payments.POST("/card/validate", h.validateCard)
	payments.POST("/webhook", requireSignature(deps.WebhookSecret), h.paymentWebhook)

	guest := router.Group("/", sessionMiddleware(deps.SessionSvc), optionalUser(deps.AccountSvc))
	guest.GET("/cart", h.getCart)
	guest.POST("/cart/items", h.addCartItem)
	guest.PATCH("/cart/items/:productId", h.updateCartItem)
	guest.DELETE("/cart/items/:productId", h.removeCartItem)
	guest.DELETE("/cart", h.clearCart)
	guest.GET("/orders/:id/boleto.pdf", h.boletoPDF)

	guest.POST("/checkout", h.startCheckout)
	guest.GET("/checkout", h.getCheckout)
	guest.POST("/checkout/shipping", h.submitShipping)
	guest.POST("/checkout/payment", h.selectPayment)
	guest.POST("/checkout/back", h.checkoutBack)
	guest.POST("/checkout/submit", h.submitCheckout)
	guest.POST("/checkout/continue", h.continueCheckout)
	guest.POST("/checkout/dismiss", h.dismissCheckoutError)

	auth := router.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/admin/login", h.adminLogin)
	auth.POST("/logout", h.logout)
	auth.GET("/me", requireUser(deps.AccountSvc), h.me)

	admin := router.Group("/admin", requireUser(deps.AccountSvc), requireAdmin())
	admin.PUT("/settings", h.updateSettings)
	admin.POST("/products", h.saveProduct)
	admin.PUT("/products/:id", h.saveProduct)
	admin.DELETE("/products/:id", h.deleteProduct)

	return router, nil
}

type handlers struct {
	deps   Deps
	logger *zap.Logger
}
