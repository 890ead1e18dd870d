// Command briefbridge starts the BriefBridge HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/and161185/briefbridge/internal/config"
	"github.com/and161185/briefbridge/internal/limiter"
	"github.com/and161185/briefbridge/internal/migrate"
	"github.com/and161185/briefbridge/internal/notify"
	"github.com/and161185/briefbridge/internal/payment"
	"github.com/and161185/briefbridge/internal/repository"
	"github.com/and161185/briefbridge/internal/repository/fallback"
	"github.com/and161185/briefbridge/internal/repository/postgres"
	httpserver "github.com/and161185/briefbridge/internal/server/http"
	"github.com/and161185/briefbridge/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, selects the store, and serves the API until signalled.
func main() {
	addr := flag.String("addr", "", "listen address (overrides ADDR)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Store: durable if configured, with in-memory fallback per operation.
	var durable repository.Store
	var lim limiter.Limiter = limiter.Noop{}
	if cfg.DurableEnabled() {
		if v, err := migrate.Up(ctx, cfg.PostgresURL, logger); err != nil {
			logger.Warn("migrate up failed; schema will be created on first use", zap.Error(err))
		} else {
			logger.Info("migrations applied", zap.Int64("version", v))
		}

		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatal("pgxpool.New", zap.Error(err))
		}
		defer pool.Close()

		durable = postgres.NewStore(&postgres.DB{Pool: pool})
		if cfg.RateLimitEnabled() {
			lim = limiter.NewPG(pool, cfg.SubmitWindow, cfg.SubmitMax)
		}
	} else {
		logger.Warn("POSTGRES_URL not set; briefs and unlocks are kept in memory only")
	}
	store := fallback.New(durable, cfg.MemoryRetention, logger)

	// Literal nils keep unconfigured capabilities nil at the interface level.
	var notifier service.Notifier
	if cfg.NotifyEnabled() {
		notifier = notify.NewResend(cfg.ResendBaseURL, cfg.ResendAPIKey, cfg.MailFrom, cfg.MailTo, cfg.NotifyTimeout)
	} else {
		logger.Info("RESEND_API_KEY not set; new-brief emails disabled")
	}
	var sessions service.SessionCreator
	if cfg.CheckoutEnabled() {
		sessions = payment.NewStripeCheckout(cfg.StripeSecretKey, nil)
	} else {
		logger.Info("Stripe checkout not configured")
	}
	var verifier service.EventVerifier
	if cfg.WebhookEnabled() {
		verifier = payment.NewWebhookVerifier(cfg.StripeWebhookSecret)
	} else {
		logger.Info("STRIPE_WEBHOOK_SECRET not set; webhook disabled")
	}

	// Services
	briefSvc := service.NewBriefService(store, notifier, lim, logger, cfg.ListLimit, cfg.NotifyTimeout)
	checkoutSvc := service.NewCheckoutService(sessions, cfg.StripePriceID, logger)
	unlockSvc := service.NewUnlockService(verifier, store, logger)

	var adminKey []byte
	if cfg.AdminAuthEnabled() {
		adminKey = []byte(cfg.AdminJWTKey)
	}
	app := httpserver.New(briefSvc, checkoutSvc, unlockSvc, httpserver.Options{
		AdminKey:      adminKey,
		StoreMode:     string(store.Mode()),
		AllowedOrigin: cfg.AllowedOrigin,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("store", string(store.Mode())))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
		}
		if err := briefSvc.Wait(shutdownCtx); err != nil {
			logger.Warn("pending notifications abandoned", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
