package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository/memory"
)

type webhookFixture struct {
	svc   *WebhookService
	store *spyStore
	hooks *recordingHooks
	txID  string
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	ctx := context.Background()
	store := &spyStore{Transactions: memory.NewTransactionStore()}
	tx, err := store.Create(ctx, models.Transaction{
		Reference:     "REF-1",
		Amount:        50000,
		Currency:      models.CurrencyCOP,
		Status:        models.TxnPending,
		Type:          models.TxnPayment,
		CustomerEmail: "a@b.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Update(ctx, tx.ID, models.TransactionPatch{ExternalTransactionID: ptr("wtx_1")}); err != nil {
		t.Fatal(err)
	}
	hooks := newRecordingHooks()
	return &webhookFixture{
		svc:   NewWebhookService(store, &fakeGateway{}, hooks, quietLogger()),
		store: store,
		hooks: hooks,
		txID:  tx.ID,
	}
}

func (f *webhookFixture) stored(t *testing.T) models.Transaction {
	t.Helper()
	tx, err := f.store.FindByID(context.Background(), f.txID)
	if err != nil {
		t.Fatal(err)
	}
	return tx
}

func webhookKind(err error) WebhookErrorKind {
	var we *WebhookError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

func TestWebhookApproves(t *testing.T) {
	f := newWebhookFixture(t)

	if err := f.svc.ProcessWebhook(context.Background(), webhookBody(t, "wtx_1", "APPROVED", 1700000000, "")); err != nil {
		t.Fatalf("process: %v", err)
	}
	tx := f.stored(t)
	if tx.Status != models.TxnApproved || tx.ProcessedAt == nil {
		t.Fatalf("status=%s processedAt=%v", tx.Status, tx.ProcessedAt)
	}
	if tx.Metadata["wompiStatus"] != "APPROVED" || tx.Metadata["webhookEvent"] != "transaction.updated" {
		t.Fatalf("metadata not merged: %v", tx.Metadata)
	}
	if f.hooks.count(models.TxnApproved) != 1 {
		t.Fatalf("approved hook ran %d times", f.hooks.count(models.TxnApproved))
	}
}

func TestWebhookReplayConverges(t *testing.T) {
	f := newWebhookFixture(t)
	body := webhookBody(t, "wtx_1", "DECLINED", 1700000000, "")

	if err := f.svc.ProcessWebhook(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	first := f.stored(t)
	if err := f.svc.ProcessWebhook(context.Background(), body); err != nil {
		t.Fatalf("replay: %v", err)
	}
	second := f.stored(t)

	if second.Status != models.TxnDeclined || !second.ProcessedAt.Equal(*first.ProcessedAt) {
		t.Fatalf("replay changed state: first=%+v second=%+v", first, second)
	}
	if f.hooks.count(models.TxnDeclined) != 2 {
		t.Fatalf("declined hook ran %d times, want once per delivery", f.hooks.count(models.TxnDeclined))
	}
}

func TestWebhookBadSignatureSkipsLookup(t *testing.T) {
	f := newWebhookFixture(t)

	err := f.svc.ProcessWebhook(context.Background(), webhookBody(t, "wtx_1", "APPROVED", 1700000000, "deadbeef"))
	if webhookKind(err) != WebhookInvalidSignature {
		t.Fatalf("expected invalid signature, got %v", err)
	}
	if f.store.lookups.Load() != 0 {
		t.Fatalf("store consulted %d times before signature check", f.store.lookups.Load())
	}
	if f.stored(t).Status != models.TxnPending {
		t.Fatal("rejected delivery changed the transaction")
	}
}

func TestWebhookInvalidPayload(t *testing.T) {
	f := newWebhookFixture(t)
	for name, body := range map[string][]byte{
		"not json":      []byte("{"),
		"empty":         []byte("{}"),
		"no status":     []byte(`{"event":"transaction.updated","data":{"transaction":{"id":"wtx_1","reference":"REF-1","amount_in_cents":1,"customer_email":"a@b.com"}},"timestamp":1,"signature":{"checksum":"x"}}`),
		"zero amount":   []byte(`{"event":"transaction.updated","data":{"transaction":{"id":"wtx_1","status":"APPROVED","reference":"REF-1","amount_in_cents":0,"customer_email":"a@b.com"}},"timestamp":1,"signature":{"checksum":"x"}}`),
		"no checksum":   []byte(`{"event":"transaction.updated","data":{"transaction":{"id":"wtx_1","status":"APPROVED","reference":"REF-1","amount_in_cents":1,"customer_email":"a@b.com"}},"timestamp":1,"signature":{}}`),
		"no timestamp":  []byte(`{"event":"transaction.updated","data":{"transaction":{"id":"wtx_1","status":"APPROVED","reference":"REF-1","amount_in_cents":1,"customer_email":"a@b.com"}},"signature":{"checksum":"x"}}`),
	} {
		if kind := webhookKind(f.svc.ProcessWebhook(context.Background(), body)); kind != WebhookInvalidPayload {
			t.Errorf("%s: kind = %q", name, kind)
		}
	}
	if f.store.lookups.Load() != 0 {
		t.Fatal("invalid payloads reached the store")
	}
}

func TestWebhookUnknownTransaction(t *testing.T) {
	f := newWebhookFixture(t)
	err := f.svc.ProcessWebhook(context.Background(), webhookBody(t, "wtx_missing", "APPROVED", 1700000000, ""))
	if webhookKind(err) != WebhookTransactionNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	if f.hooks.count(models.TxnApproved) != 0 {
		t.Fatal("hook ran for unknown transaction")
	}
}

func TestWebhookIgnoresOlderEvent(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	if err := f.svc.ProcessWebhook(ctx, webhookBody(t, "wtx_1", "DECLINED", 1700000100, "")); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.ProcessWebhook(ctx, webhookBody(t, "wtx_1", "APPROVED", 1700000000, "")); err != nil {
		t.Fatalf("older event should be acknowledged, got %v", err)
	}
	tx := f.stored(t)
	if tx.Status != models.TxnDeclined {
		t.Fatalf("older event overwrote status: %s", tx.Status)
	}
	if want := time.Unix(1700000100, 0).UTC().Format(time.RFC3339); tx.Metadata[metaWebhookTimestamp] != want {
		t.Fatalf("webhookTimestamp = %v, want %s", tx.Metadata[metaWebhookTimestamp], want)
	}
	if f.hooks.count(models.TxnApproved) != 0 {
		t.Fatal("hook ran for an ignored event")
	}
}

func TestWebhookNeverRegressesToPending(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	if err := f.svc.ProcessWebhook(ctx, webhookBody(t, "wtx_1", "APPROVED", 1700000000, "")); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.ProcessWebhook(ctx, webhookBody(t, "wtx_1", "PENDING", 1700000500, "")); err != nil {
		t.Fatalf("pending after approval should be acknowledged, got %v", err)
	}
	if got := f.stored(t).Status; got != models.TxnApproved {
		t.Fatalf("status regressed to %s", got)
	}
}

func TestWebhookHookFailuresAreSwallowed(t *testing.T) {
	for name, setup := range map[string]func(*recordingHooks){
		"error": func(h *recordingHooks) { h.err = errors.New("mail down") },
		"panic": func(h *recordingHooks) { h.panics = true },
	} {
		t.Run(name, func(t *testing.T) {
			f := newWebhookFixture(t)
			setup(f.hooks)
			if err := f.svc.ProcessWebhook(context.Background(), webhookBody(t, "wtx_1", "ERROR", 1700000000, "")); err != nil {
				t.Fatalf("hook failure leaked: %v", err)
			}
			if f.stored(t).Status != models.TxnError || f.hooks.count(models.TxnError) != 1 {
				t.Fatal("update or hook did not run")
			}
		})
	}
}

func TestWebhookUnknownStatusStaysPending(t *testing.T) {
	f := newWebhookFixture(t)
	if err := f.svc.ProcessWebhook(context.Background(), webhookBody(t, "wtx_1", "SOMETHING_NEW", 1700000000, "")); err != nil {
		t.Fatal(err)
	}
	tx := f.stored(t)
	if tx.Status != models.TxnPending || tx.ProcessedAt != nil {
		t.Fatalf("unknown status moved transaction: %+v", tx)
	}
	if tx.Metadata["wompiStatus"] != "SOMETHING_NEW" {
		t.Fatal("raw gateway status not kept in metadata")
	}
}
