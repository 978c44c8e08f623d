package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/api"
	"github.com/JulianaCelis/hatsusound-backend/internal/api/handlers"
	"github.com/JulianaCelis/hatsusound-backend/internal/auth"
	"github.com/JulianaCelis/hatsusound-backend/internal/cache"
	"github.com/JulianaCelis/hatsusound-backend/internal/config"
	"github.com/JulianaCelis/hatsusound-backend/internal/db"
	"github.com/JulianaCelis/hatsusound-backend/internal/events"
	"github.com/JulianaCelis/hatsusound-backend/internal/gateway/wompi"
	"github.com/JulianaCelis/hatsusound-backend/internal/logger"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/middleware"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository/postgres"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
	"github.com/JulianaCelis/hatsusound-backend/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	dbPool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer dbPool.Close()

	if cfg.Migrate {
		applied, err := db.RunMigrations(ctx, dbPool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied", "count", len(applied), "files", applied)
	}

	repos := postgres.NewRepositories(dbPool)
	metrics.Init()

	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	pub, err := events.New(cfg.Events)
	if err != nil {
		return fmt.Errorf("events: %w", err)
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("close publisher", "err", err)
		}
	}()

	var idem cache.IdempotencyStore = cache.NewMemory(cache.DefaultIdempotencyTTL)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		idem = cache.NewRedis(rdb, cache.DefaultIdempotencyTTL)
	}

	gw := wompi.NewClient(cfg.Wompi, log)
	tm := auth.NewTokenManager(cfg.JWTIssuer, cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	hooks := services.NewNotifyingHooks(repos.AuditLogs, pub, wp, log)
	checkoutSvc := services.NewCheckoutService(repos.Transactions, gw, idem, services.CheckoutConfig{
		RedirectURL:     cfg.Checkout.RedirectURL,
		AcceptanceToken: cfg.Checkout.AcceptanceToken,
		GatewayTimeout:  cfg.Wompi.Timeout,
	}, log)
	webhookSvc := services.NewWebhookService(repos.Transactions, gw, hooks, log)
	reconcileSvc := services.NewReconcileService(repos.Transactions, gw, hooks, services.ReconcileConfig{
		Interval:    cfg.Reconcile.Interval,
		StaleAfter:  cfg.Reconcile.StaleAfter,
		ExpireAfter: cfg.Reconcile.ExpireAfter,
		BatchSize:   cfg.Reconcile.BatchSize,
		Workers:     cfg.Workers,
	}, log)
	txnSvc := services.NewTransactionService(repos.Transactions, repos.AuditLogs, log)
	productSvc := services.NewProductService(repos.Products)
	userSvc := services.NewUserService(repos.Users, tm)

	r := api.NewRouter(api.RouterDeps{
		Cfg:          cfg,
		Log:          log,
		Auth:         middleware.NewAuthMiddleware(tm, cfg.Env),
		Ready:        repos.Ping,
		Checkout:     handlers.NewCheckoutHandler(checkoutSvc, productSvc, log),
		Webhooks:     handlers.NewWebhookHandler(webhookSvc, log),
		Transactions: handlers.NewTransactionHandler(txnSvc, reconcileSvc, log),
		Products:     handlers.NewProductHandler(productSvc, log),
		Payments:     handlers.NewPaymentHandler(gw, log),
		Accounts:     handlers.NewAuthHandler(userSvc, log),
	})

	if cfg.Reconcile.Enabled {
		go reconcileSvc.Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "wompi_env", cfg.Wompi.Environment, "events", cfg.Events.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
