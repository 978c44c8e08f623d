package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/handlers"
	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/config"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/middleware"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
)

type RouterDeps struct {
	Cfg  config.Config
	Log  *slog.Logger
	Auth *middleware.AuthMiddleware

	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error

	Checkout     *handlers.CheckoutHandler
	Webhooks     *handlers.WebhookHandler
	Transactions *handlers.TransactionHandler
	Products     *handlers.ProductHandler
	Payments     *handlers.PaymentHandler
	Accounts     *handlers.AuthHandler
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(d.Log), middleware.HTTPMetrics, middleware.AccessLog(d.Log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins(d.Cfg),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Get("/ready", readiness(d.Ready, d.Log))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Gateway callbacks skip the per-IP rate limit.
		r.Post("/webhooks/wompi", d.Webhooks.Wompi)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(d.Cfg.RateRPS))

			r.Post("/auth/register", d.Accounts.Register)
			r.Post("/auth/login", d.Accounts.Login)
			r.Post("/auth/refresh", d.Accounts.Refresh)

			r.Get("/products", d.Products.List)
			r.Get("/products/{id}", d.Products.Get)

			r.Post("/checkout", d.Checkout.Create)
			r.Post("/payments/tokens/cards", d.Payments.TokenizeCard)

			r.Get("/transactions/{id}", d.Transactions.Get)
			r.Get("/transactions/reference/{reference}", d.Transactions.GetByReference)

			r.Group(func(r chi.Router) {
				r.Use(d.Auth.Auth)
				r.Get("/auth/me", d.Accounts.Me)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(models.RoleAdmin))
					r.Get("/transactions", d.Transactions.List)
					r.Get("/transactions/{id}/history", d.Transactions.History)
					r.Post("/transactions/{id}/sync", d.Transactions.Sync)
					r.Post("/products", d.Products.Create)
					r.Put("/products/{id}", d.Products.Update)
					r.Delete("/products/{id}", d.Products.Delete)
				})
			})
		})
	})

	return r
}

func readiness(ready func(context.Context) error, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				log.Warn("readiness check failed", "err", err)
				httpx.WriteError(w, http.StatusServiceUnavailable, "not_ready", "dependencies unavailable", nil)
				return
			}
		}
		_, _ = w.Write([]byte("ready"))
	}
}

func corsOrigins(cfg config.Config) []string {
	if cfg.IsProd() && cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}
