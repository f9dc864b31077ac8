package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tailorshop-be/internal/catalog"
	"tailorshop-be/internal/config"
	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/db"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/email"
	"tailorshop-be/internal/events"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/material"
	"tailorshop-be/internal/metrics"
	"tailorshop-be/internal/middleware"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/order"
	"tailorshop-be/internal/payment"
	"tailorshop-be/internal/payment/webhook"
	"tailorshop-be/internal/transport"
	"tailorshop-be/internal/user"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Swapped in tests.
var (
	initDBFunc      = db.InitDB
	startServerFunc = startServer
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	// Money goes over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	database := initDBFunc(cfg)
	defer database.Close()

	publisher := events.New(cfg.KafkaBrokers)
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, limiter := newServer(cfg, database, publisher)
	go limiter.Run(ctx)

	addr := ":" + cfg.AppPort
	logger.L().Info("server listening", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
	return startServerFunc(ctx, addr, handler)
}

// newServer wires repositories, services and the middleware chain.
func newServer(cfg *config.Config, database *sql.DB, publisher events.Publisher) (http.Handler, *middleware.Limiter) {
	m := metrics.New()

	users := user.NewService(user.NewRepository(database))
	coupons := coupon.NewService(coupon.NewRepository(database))
	dues := due.NewService(due.NewRepository(database), publisher)
	notifications := notification.NewService(notification.NewRepository(database))
	emails := email.NewService(email.NewRepository(database), email.NewSMTPSender(cfg), m)
	materials := material.NewService(material.NewRepository(database))
	documents := catalog.NewService(catalog.NewRepository(database))

	payments := payment.NewService(
		payment.NewRepository(database),
		cfg,
		publisher,
		m,
		payment.NewBkashGateway(cfg),
		payment.NewOnlineGateway(cfg),
	)

	orders := order.NewService(order.NewRepository(database), order.Deps{
		Coupons:   coupons,
		Notifier:  notifications,
		Mailer:    emails,
		Payments:  payments,
		Publisher: publisher,
		Recorder:  m,
	})

	h := &transport.Handler{
		Users:         users,
		Orders:        orders,
		Coupons:       coupons,
		Dues:          dues,
		Notifications: notifications,
		Emails:        emails,
		Materials:     materials,
		Catalog:       documents,
		Callbacks:     webhook.NewHandler(payments),
		Recorder:      m,
		SecureCookies: cfg.AppEnv == "production",
	}

	limiter := middleware.NewLimiter(cfg.InternalKey)
	return setupRouter(h, m, limiter, cfg.CORSOrigin), limiter
}

// setupRouter mounts the API and the operational endpoints. Metrics wraps
// the mux directly so it can read the matched pattern.
func setupRouter(h *transport.Handler, m *metrics.ServerMetrics, limiter *middleware.Limiter, origin string) http.Handler {
	mux := http.NewServeMux()
	h.Register(mux)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", m.Handler())

	var handler http.Handler = m.Middleware(mux)
	handler = limiter.Middleware(handler)
	handler = middleware.Auth(handler)
	handler = middleware.CORS(origin)(handler)
	handler = middleware.Recover(handler)
	handler = logger.LoggingMiddleware(handler)
	handler = logger.RequestIDMiddleware(handler)
	return handler
}

func startServer(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.L().Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
