package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/handlers"
	"github.com/JulianaCelis/hatsusound-backend/internal/auth"
	"github.com/JulianaCelis/hatsusound-backend/internal/config"
	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/middleware"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository/memory"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

type stubGateway struct{}

func (stubGateway) CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (*gateway.Transaction, error) {
	return &gateway.Transaction{ID: "wtx_router", Status: "PENDING", Reference: req.Reference}, nil
}

func (stubGateway) GetTransaction(ctx context.Context, id string) (*gateway.Transaction, error) {
	return &gateway.Transaction{ID: id, Status: "PENDING"}, nil
}

func (stubGateway) VerifySignature(payload []byte, checksum string) bool { return false }

func (stubGateway) CheckoutURL(id string) string { return "https://checkout.test/" + id }

func (stubGateway) CreatePaymentMethodToken(ctx context.Context, card gateway.CardData) (string, error) {
	return "tok", nil
}

func newTestRouter(t *testing.T) (http.Handler, *auth.TokenManager) {
	t.Helper()
	metrics.Init()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewTransactionStore()
	gw := stubGateway{}
	tm := auth.NewTokenManager("test", "a", "r", time.Minute, time.Hour)

	checkout := services.NewCheckoutService(store, gw, nil, services.CheckoutConfig{}, log)
	webhooks := services.NewWebhookService(store, gw, nil, log)
	reconcile := services.NewReconcileService(store, gw, nil, services.ReconcileConfig{}, log)
	txs := services.NewTransactionService(store, memory.NewAuditLogStore(), log)

	return NewRouter(RouterDeps{
		Cfg:          config.Config{Env: "test"},
		Log:          log,
		Auth:         middleware.NewAuthMiddleware(tm, "test"),
		Checkout:     handlers.NewCheckoutHandler(checkout, nil, log),
		Webhooks:     handlers.NewWebhookHandler(webhooks, log),
		Transactions: handlers.NewTransactionHandler(txs, reconcile, log),
		Products:     handlers.NewProductHandler(nil, log),
		Payments:     handlers.NewPaymentHandler(gw, log),
		Accounts:     handlers.NewAuthHandler(nil, log),
	}), tm
}

func do(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterWiring(t *testing.T) {
	h, tm := newTestRouter(t)

	if rec := do(h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d", rec.Code)
	}

	rec := do(h, http.MethodPost, "/api/v1/checkout",
		`{"amount":50000,"currency":"COP","customerEmail":"a@b.com","productId":"p1","productName":"X","productCategory":"CD"}`, nil)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "https://checkout.test/wtx_router") {
		t.Fatalf("checkout: %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatal("request id header missing")
	}
	if rec := do(h, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "checkouts_total") {
		t.Fatalf("metrics: %d", rec.Code)
	}

	if rec := do(h, http.MethodPost, "/api/v1/checkout", `{"amount":10}`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid checkout: %d", rec.Code)
	}
	if rec := do(h, http.MethodPost, "/api/v1/webhooks/wompi", `not json`, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad webhook: %d", rec.Code)
	}

	if rec := do(h, http.MethodGet, "/api/v1/transactions", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous admin list: %d", rec.Code)
	}
	user, _ := tm.GeneratePair("u-1", "user")
	if rec := do(h, http.MethodGet, "/api/v1/transactions", "", map[string]string{"Authorization": "Bearer " + user.AccessToken}); rec.Code != http.StatusForbidden {
		t.Fatalf("user admin list: %d", rec.Code)
	}
	admin, _ := tm.GeneratePair("u-2", "admin")
	rec = do(h, http.MethodGet, "/api/v1/transactions", "", map[string]string{"Authorization": "Bearer " + admin.AccessToken})
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"count":1`) {
		t.Fatalf("admin list: %d %s", rec.Code, rec.Body.String())
	}
}

func TestReadinessReportsFailure(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := readiness(func(context.Context) error { return errors.New("db down") }, log)
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
}
