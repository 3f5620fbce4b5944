package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lherbier/vetiver/internal"
	"github.com/lherbier/vetiver/internal/billing"
	"github.com/lherbier/vetiver/internal/email"
	"github.com/lherbier/vetiver/internal/handler/api"
	"github.com/lherbier/vetiver/internal/handler/webhook"
	"github.com/lherbier/vetiver/internal/jobs"
	"github.com/lherbier/vetiver/internal/middleware"
	"github.com/lherbier/vetiver/internal/postgres"
	"github.com/lherbier/vetiver/internal/router"
	"github.com/lherbier/vetiver/internal/routes"
	"github.com/lherbier/vetiver/internal/service"
	"github.com/lherbier/vetiver/internal/tax"
	"github.com/lherbier/vetiver/internal/telemetry"
	"github.com/lherbier/vetiver/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize Sentry error tracking
	sentryFlush, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Enabled:     cfg.Sentry.Enabled,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		SampleRate:  cfg.Sentry.SampleRate,
		Debug:       cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer sentryFlush()

	// Initialize business metrics
	telemetry.InitBusinessMetrics(cfg.Metrics.Namespace)

	// Run migrations over database/sql, then open the application pool
	logger.Info("Running database migrations...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	if err := internal.RunMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("migration failed: %w", err)
	}
	sqlDB.Close()
	logger.Info("Database migrations completed successfully")

	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()
	logger.Info("Database connection established")

	// Initialize stores
	catalogStore := postgres.NewCatalogStore(pool)
	orderStore := postgres.NewOrderStore(pool)
	jobStore := postgres.NewJobStore(pool)

	// Initialize tax calculator
	taxRate, err := decimal.NewFromString(cfg.Checkout.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid CHECKOUT_TAX_RATE %q: %w", cfg.Checkout.TaxRate, err)
	}
	taxCalculator, err := tax.NewPercentageCalculator(taxRate)
	if err != nil {
		return fmt.Errorf("failed to initialize tax calculator: %w", err)
	}
	logger.Info("Tax calculator initialized", "rate", taxRate.String())

	// Initialize Stripe billing provider
	billingProvider, err := billing.NewStripeProvider(billing.StripeConfig{
		APIKey:         cfg.Stripe.SecretKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		TimeoutSeconds: 30,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}

	// Initialize services
	checkoutService := service.NewCheckoutService(catalogStore, billingProvider, taxCalculator, cfg.Checkout.Currency, logger)
	orderService := service.NewOrderService(billingProvider, orderStore, jobStore, logger)

	// Initialize email sender
	var sender email.Sender
	switch cfg.Email.Provider {
	case "smtp":
		sender = email.NewSMTPSender(&email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, logger)
	default:
		logger.Warn("Using mock email sender; confirmation emails are not delivered")
		sender = email.NewMockSender()
	}

	// ==========================================================================
	// Build route dependencies
	// ==========================================================================

	apiDeps := routes.APIDeps{
		CheckoutHandler: api.NewCheckoutHandler(checkoutService, logger),
		PaymentsHandler: api.NewPaymentsHandler(orderService, logger),
		OrdersHandler:   api.NewOrdersHandler(orderService, logger),
	}

	stripeWebhookHandler := webhook.NewStripeHandler(billingProvider, orderService)
	webhookDeps := routes.WebhookDeps{
		StripeHandler: stripeWebhookHandler.HandleWebhook,
	}

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	metrics := middleware.NewMetrics(cfg.Metrics.Namespace)

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	checkoutRateLimiter := middleware.NewRateLimiter(middleware.CheckoutRateLimiterConfig())

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		middleware.RequestID,
		middleware.WithRequestLogger(logger),
		telemetry.SentryMiddleware(),
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
	)

	// Metrics endpoint (no auth required, but should be protected in production via firewall)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Webhook routes bypass client rate limits; Stripe's retry schedule is
	// the backpressure mechanism there.
	routes.RegisterWebhookRoutes(r, webhookDeps)

	apiRouter := r.Group(defaultRateLimiter.Middleware)
	routes.RegisterAPIRoutes(apiRouter, apiDeps, checkoutRateLimiter.Middleware)

	// CORS wraps the whole router so preflight requests are answered before
	// method matching rejects them.
	rootHandler := router.CORS(cfg.CORS.AllowedOrigins)(r)

	// ==========================================================================
	// Start background worker
	// ==========================================================================

	if cfg.Worker.Enabled {
		w := worker.NewWorker(jobStore, sender, worker.Config{
			PollInterval:   cfg.Worker.PollInterval,
			MaxConcurrency: cfg.Worker.MaxConcurrency,
		}, logger)
		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker stopped", "error", err)
			}
		}()

		// Re-enqueue the jobs-table prune once a day. The job itself is
		// idempotent so overlapping instances are harmless.
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for {
				if err := jobs.EnqueuePruneFinishedJobs(ctx, jobStore); err != nil {
					logger.Error("failed to enqueue jobs prune", "error", err)
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           rootHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "address", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
