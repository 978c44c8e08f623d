package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository/memory"
)

func seedPending(t *testing.T, store *memory.TransactionStore, ref string, ext string, createdAt time.Time) models.Transaction {
	t.Helper()
	store.SetClock(func() time.Time { return createdAt })
	defer store.SetClock(time.Now)
	tx, err := store.Create(context.Background(), models.Transaction{
		Reference: ref, Amount: 50000, Currency: models.CurrencyCOP,
		Status: models.TxnPending, Type: models.TxnPayment, CustomerEmail: "a@b.com",
	})
	if err != nil {
		t.Fatal(err)
	}
	if ext != "" {
		if tx, err = store.Update(context.Background(), tx.ID, models.TransactionPatch{ExternalTransactionID: &ext}); err != nil {
			t.Fatal(err)
		}
	}
	return tx
}

func TestReconcileOnce(t *testing.T) {
	store := memory.NewTransactionStore()
	now := time.Now()

	abandoned := seedPending(t, store, "REF-OLD", "", now.Add(-48*time.Hour))
	young := seedPending(t, store, "REF-YOUNG", "", now.Add(-time.Hour))
	settled := seedPending(t, store, "REF-SETTLED", "wtx_ok", now.Add(-time.Hour))
	broken := seedPending(t, store, "REF-BROKEN", "wtx_fail", now.Add(-time.Hour))
	fresh := seedPending(t, store, "REF-FRESH", "wtx_fresh", now)

	gw := &fakeGateway{getFn: func(ctx context.Context, id string) (*gateway.Transaction, error) {
		switch id {
		case "wtx_ok":
			return &gateway.Transaction{ID: id, Status: "APPROVED"}, nil
		case "wtx_fail":
			return nil, &gateway.Error{Kind: gateway.KindUnavailable}
		}
		t.Errorf("unexpected lookup %s", id)
		return nil, errors.New("unexpected")
	}}
	hooks := newRecordingHooks()
	svc := NewReconcileService(store, gw, hooks, ReconcileConfig{StaleAfter: 10 * time.Minute, ExpireAfter: 24 * time.Hour, Workers: 2}, quietLogger())

	res, err := svc.ReconcileOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := ReconcileResult{Checked: 4, Updated: 1, Expired: 1, Failed: 1}
	if res != want {
		t.Fatalf("result = %+v, want %+v", res, want)
	}

	status := func(id string) models.TransactionStatus {
		tx, err := store.FindByID(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		return tx.Status
	}
	if status(abandoned.ID) != models.TxnExpired {
		t.Error("abandoned checkout not expired")
	}
	if status(young.ID) != models.TxnPending || status(broken.ID) != models.TxnPending || status(fresh.ID) != models.TxnPending {
		t.Error("transactions that should stay pending were changed")
	}
	if status(settled.ID) != models.TxnApproved {
		t.Error("settled transaction not synced")
	}
	if hooks.count(models.TxnApproved) != 1 || hooks.count(models.TxnExpired) != 1 {
		t.Fatalf("hooks: %v", hooks.calls)
	}
}

func TestReconcileUnchangedStatusFiresNoHook(t *testing.T) {
	store := memory.NewTransactionStore()
	seedPending(t, store, "REF-1", "wtx_1", time.Now().Add(-time.Hour))
	hooks := newRecordingHooks()
	svc := NewReconcileService(store, &fakeGateway{}, hooks, ReconcileConfig{}, quietLogger())

	res, err := svc.ReconcileOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Checked != 1 || res.Updated != 0 {
		t.Fatalf("result = %+v", res)
	}
	if len(hooks.calls) != 0 {
		t.Fatalf("hooks ran: %v", hooks.calls)
	}
}

func TestSyncTransaction(t *testing.T) {
	store := memory.NewTransactionStore()
	noExt := seedPending(t, store, "REF-NOEXT", "", time.Now())
	withExt := seedPending(t, store, "REF-EXT", "wtx_9", time.Now())

	gw := &fakeGateway{getFn: func(ctx context.Context, id string) (*gateway.Transaction, error) {
		return &gateway.Transaction{ID: id, Status: "DECLINED", StatusMessage: "fondos insuficientes"}, nil
	}}
	svc := NewReconcileService(store, gw, newRecordingHooks(), ReconcileConfig{}, quietLogger())

	if _, err := svc.SyncTransaction(context.Background(), noExt.ID); !errors.Is(err, ErrNoExternalTransaction) {
		t.Fatalf("expected ErrNoExternalTransaction, got %v", err)
	}
	tx, err := svc.SyncTransaction(context.Background(), withExt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if tx.Status != models.TxnDeclined || tx.ErrorMessage == nil || *tx.ErrorMessage != "fondos insuficientes" {
		t.Fatalf("synced transaction %+v", tx)
	}
}
