package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"lavibaby-storefront/internal/checkout"
	"lavibaby-storefront/internal/config"
	"lavibaby-storefront/internal/events"
	"lavibaby-storefront/internal/httpserver"
	"lavibaby-storefront/internal/logging"
	"lavibaby-storefront/internal/payment"
	"lavibaby-storefront/internal/postal"
	accountsvc "lavibaby-storefront/internal/service/account"
	cartsvc "lavibaby-storefront/internal/service/cart"
	productsvc "lavibaby-storefront/internal/service/product"
	sessionsvc "lavibaby-storefront/internal/service/session"
)

type orderEvents interface {
	checkout.EventPublisher
	Close() error
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.LogFormat, "api")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer store.Close()

	var publisher orderEvents = events.Noop{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic, logger)
		if err != nil {
			logger.Fatal("init kafka publisher", zap.Error(err))
		}
		publisher = kp
	}
	defer func() { _ = publisher.Close() }()

	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	productService := productsvc.New(store.products, logger)
	cartService := cartsvc.New(store.kv, productService, logger)
	sessionService := sessionsvc.New(store.kv)
	accountService := accountsvc.New(store.users, store.kv, accountsvc.Config{
		JWTSecret:  cfg.JWTSecret,
		SessionTTL: cfg.JWTTTL,
		Admin: accountsvc.AdminCredentials{
			Email:        cfg.AdminEmail,
			PasswordHash: cfg.AdminPasswordHash,
		},
	}, logger)

	breakerFailures := uint32(0)
	if cfg.BreakerFailures > 0 {
		breakerFailures = uint32(cfg.BreakerFailures)
	}
	gateway := payment.NewBreakerGateway(
		payment.NewSimulatedGateway(payment.PixPayee{
			Key:          cfg.PixKey,
			MerchantName: cfg.PixMerchantName,
			MerchantCity: cfg.PixMerchantCity,
		}, cfg.BoletoBaseURL),
		payment.BreakerSettings{ConsecutiveFailures: breakerFailures},
		logger,
	)
	paymentService := payment.NewService(gateway, payment.Config{
		Latency: cfg.PaymentLatency,
		Timeout: cfg.PaymentTimeout,
	}, logger)

	completer := checkout.NewOrderCompleter(store.orders, cartService, publisher, logger)
	checkoutManager := checkout.NewManager(checkout.Deps{
		Payments:        paymentService,
		Cart:            cartService,
		Settings:        accountService,
		Completer:       completer,
		Logger:          logger,
		CompletionDelay: cfg.OrderCompletionDelay,
	})

	if cfg.WebhookSecret == "" {
		logger.Warn("PAYMENT_WEBHOOK_SECRET not set, payment webhook disabled")
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		ProductSvc:    productService,
		CartSvc:       cartService,
		SessionSvc:    sessionService,
		Checkout:      checkoutManager,
		AccountSvc:    accountService,
		Postal:        postal.New(cfg.ViaCEPBaseURL, store.kv, logger),
		Orders:        store.orders,
		Payments:      completer,
		CORSOrigins:   cfg.CORSOrigins,
		WebhookSecret: cfg.WebhookSecret,
		Ready:         store.ready,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr), zap.String("storage", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}
