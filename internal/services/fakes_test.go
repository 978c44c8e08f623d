package services

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testSecret = "test_integrity_secret"

type fakeGateway struct {
	mu       sync.Mutex
	requests []gateway.TransactionRequest

	createFn func(ctx context.Context, req gateway.TransactionRequest) (*gateway.Transaction, error)
	getFn    func(ctx context.Context, id string) (*gateway.Transaction, error)
}

func (g *fakeGateway) CreateTransaction(ctx context.Context, req gateway.TransactionRequest) (*gateway.Transaction, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.createFn != nil {
		return g.createFn(ctx, req)
	}
	return &gateway.Transaction{ID: "wtx_1", Status: "PENDING", Reference: req.Reference, CreatedAt: "2024-01-01T00:00:00Z"}, nil
}

func (g *fakeGateway) GetTransaction(ctx context.Context, id string) (*gateway.Transaction, error) {
	if g.getFn != nil {
		return g.getFn(ctx, id)
	}
	return &gateway.Transaction{ID: id, Status: "PENDING"}, nil
}

func (g *fakeGateway) VerifySignature(payload []byte, checksum string) bool {
	return gateway.Verify(testSecret, payload, checksum)
}

func (g *fakeGateway) CheckoutURL(id string) string {
	return "https://checkout.test/p/?transaction-id=" + id
}

func (g *fakeGateway) CreatePaymentMethodToken(ctx context.Context, card gateway.CardData) (string, error) {
	return "tok_test", nil
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

// spyStore counts calls on top of a real store.
type spyStore struct {
	repository.Transactions
	creates atomic.Int32
	updates atomic.Int32
	lookups atomic.Int32
}

func (s *spyStore) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	s.creates.Add(1)
	return s.Transactions.Create(ctx, tx)
}

func (s *spyStore) Update(ctx context.Context, id string, p models.TransactionPatch) (models.Transaction, error) {
	s.updates.Add(1)
	return s.Transactions.Update(ctx, id, p)
}

func (s *spyStore) FindByExternalTransactionID(ctx context.Context, id string) (models.Transaction, error) {
	s.lookups.Add(1)
	return s.Transactions.FindByExternalTransactionID(ctx, id)
}

type recordingHooks struct {
	mu     sync.Mutex
	calls  map[models.TransactionStatus]int
	err    error
	panics bool
}

func newRecordingHooks() *recordingHooks {
	return &recordingHooks{calls: map[models.TransactionStatus]int{}}
}

func (h *recordingHooks) record(tx models.Transaction) error {
	h.mu.Lock()
	h.calls[tx.Status]++
	h.mu.Unlock()
	if h.panics {
		panic("hook exploded")
	}
	return h.err
}

func (h *recordingHooks) OnApproved(_ context.Context, tx models.Transaction) error { return h.record(tx) }
func (h *recordingHooks) OnDeclined(_ context.Context, tx models.Transaction) error { return h.record(tx) }
func (h *recordingHooks) OnError(_ context.Context, tx models.Transaction) error    { return h.record(tx) }
func (h *recordingHooks) OnExpired(_ context.Context, tx models.Transaction) error  { return h.record(tx) }

func (h *recordingHooks) count(s models.TransactionStatus) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[s]
}

// webhookBody builds a delivery signed with testSecret unless checksum is
// given explicitly.
func webhookBody(t *testing.T, extID, status string, ts int64, checksum string) []byte {
	t.Helper()
	body := map[string]any{
		"event": "transaction.updated",
		"data": map[string]any{
			"transaction": map[string]any{
				"id":              extID,
				"status":          status,
				"reference":       "REF-1",
				"amount_in_cents": 50000,
				"currency":        "COP",
				"customer_email":  "a@b.com",
				"created_at":      "2024-01-01T00:00:00Z",
				"updated_at":      "2024-01-01T00:05:00Z",
			},
		},
		"timestamp": ts,
		"signature": map[string]any{"checksum": "placeholder", "properties": []string{"transaction.id", "transaction.status"}},
	}
	if checksum == "" {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		canonical, err := gateway.CanonicalWebhookPayload(raw)
		if err != nil {
			t.Fatal(err)
		}
		checksum = gateway.Sign(testSecret, canonical)
	}
	body["signature"].(map[string]any)["checksum"] = checksum
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func ptr[T any](v T) *T { return &v }
