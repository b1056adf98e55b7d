// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/event-ticketing/internal/auth"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/booking"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/config"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/database"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/handler"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/inventory"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/logger"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/metrics"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/notify"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/payment"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/repository"
	"github.com/Shivanand-hulikatti/event-ticketing/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	})
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 1. Record store ───────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── 2. Metrics ────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// ── 3. Notifications ──────────────────────────────────────────────────
	wmLogger := notify.NewLoggerAdapter(log.Named("watermill"))
	transport, err := notify.NewTransport(cfg.Redis, wmLogger)
	if err != nil {
		return fmt.Errorf("notification transport: %w", err)
	}
	defer func() { _ = transport.Close() }()

	var (
		sender notify.Sender
		outbox *notify.Outbox
	)
	from := notify.Contact{Name: cfg.Mail.FromName, Email: cfg.Mail.FromEmail}
	if cfg.Mail.MockMode() {
		log.Warn("mail running in mock mode: emails are kept in memory", zap.String("mail_mode", "mock"))
		outbox = notify.NewOutbox(0, log)
		sender = outbox
	} else {
		sender = notify.NewMailerSend(cfg.Mail.MailerSendAPIKey, from, log)
	}

	notifyRouter, err := notify.NewRouter(transport.Subscriber, sender, wmLogger)
	if err != nil {
		return fmt.Errorf("notification router: %w", err)
	}
	go func() {
		if err := notifyRouter.Run(ctx); err != nil {
			log.Error("notification router stopped", zap.Error(err))
		}
	}()
	<-notifyRouter.Running()
	notifier := notify.NewNotifier(transport.Publisher, log)

	// ── 4. Booking core ───────────────────────────────────────────────────
	guard := inventory.NewGuard(store, inventory.Config{HoldTTL: cfg.Booking.HoldTTL}, log, m)
	provider := payment.New(cfg.Payment, log, m)
	orchestrator := booking.New(store, guard, provider, notifier, booking.Config{
		Currency:        cfg.Payment.Currency,
		ProviderTimeout: cfg.Payment.Timeout,
	}, log, m)
	go orchestrator.RunReaper(ctx, cfg.Booking.ReaperInterval)

	// ── 5. HTTP ───────────────────────────────────────────────────────────
	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	router := handler.NewRouter(handler.Deps{
		Log:        log,
		Tokens:     tokens,
		Auth:       auth.NewService(store, tokens, notifier, log),
		Events:     service.NewEventService(store, log),
		Categories: service.NewCategoryService(store, log),
		Tickets:    service.NewTicketService(store, orchestrator, log),
		Dashboard:  service.NewDashboardService(store),
		Bookings:   orchestrator,
		Metrics:    m,
		Payment:    provider,
		Outbox:     outbox,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Store.Driver),
			zap.String("payment_mode", provider.Mode()),
			zap.Bool("redis_notifications", cfg.Redis.Enabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if err := notifyRouter.Close(); err != nil {
		log.Warn("close notification router", zap.Error(err))
	}
	log.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, func(), error) {
	if cfg.Store.Driver == "memory" {
		log.Warn("using in-memory record store: data is lost on restart")
		return repository.NewMemory(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("connected to PostgreSQL", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	return repository.NewPostgres(pool), pool.Close, nil
}
