package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/events"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
	"github.com/JulianaCelis/hatsusound-backend/internal/worker"
)

// StatusHooks are side effects run after a transaction reaches a terminal
// status. They are best effort: errors are logged, never propagated.
type StatusHooks interface {
	OnApproved(ctx context.Context, tx models.Transaction) error
	OnDeclined(ctx context.Context, tx models.Transaction) error
	OnError(ctx context.Context, tx models.Transaction) error
	OnExpired(ctx context.Context, tx models.Transaction) error
}

// dispatchHook runs the hook for tx.Status. PENDING has no hook. Errors and
// panics are logged and swallowed.
func dispatchHook(ctx context.Context, hooks StatusHooks, tx models.Transaction, log *slog.Logger) {
	if hooks == nil {
		return
	}
	var run func(context.Context, models.Transaction) error
	switch tx.Status {
	case models.TxnApproved:
		run = hooks.OnApproved
	case models.TxnDeclined:
		run = hooks.OnDeclined
	case models.TxnError:
		run = hooks.OnError
	case models.TxnExpired:
		run = hooks.OnExpired
	default:
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("status hook panicked", "status", tx.Status, "reference", tx.Reference, "panic", fmt.Sprint(rec))
		}
	}()
	if err := run(ctx, tx); err != nil {
		log.Error("status hook failed", "status", tx.Status, "reference", tx.Reference, "err", err)
	}
}

const publishTimeout = 10 * time.Second

// NotifyingHooks records an audit entry, counts the transition and publishes
// a transaction.<status> event. Publication runs on the worker pool when one
// is given.
type NotifyingHooks struct {
	audit repo.AuditLogs
	pub   events.Publisher
	pool  *worker.Pool
	log   *slog.Logger
}

func NewNotifyingHooks(audit repo.AuditLogs, pub events.Publisher, pool *worker.Pool, log *slog.Logger) *NotifyingHooks {
	if pub == nil {
		pub = events.Noop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &NotifyingHooks{audit: audit, pub: pub, pool: pool, log: log}
}

func (h *NotifyingHooks) OnApproved(ctx context.Context, tx models.Transaction) error {
	return h.notify(ctx, tx)
}

func (h *NotifyingHooks) OnDeclined(ctx context.Context, tx models.Transaction) error {
	return h.notify(ctx, tx)
}

func (h *NotifyingHooks) OnError(ctx context.Context, tx models.Transaction) error {
	return h.notify(ctx, tx)
}

func (h *NotifyingHooks) OnExpired(ctx context.Context, tx models.Transaction) error {
	return h.notify(ctx, tx)
}

func (h *NotifyingHooks) notify(ctx context.Context, tx models.Transaction) error {
	eventType := "transaction." + strings.ToLower(string(tx.Status))
	metrics.StatusTransitions.WithLabelValues(string(tx.Status)).Inc()

	ev := events.TransactionEvent{
		Type:          eventType,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Status:        string(tx.Status),
		Amount:        tx.Amount,
		Currency:      string(tx.Currency),
		CustomerEmail: tx.CustomerEmail,
		OccurredAt:    time.Now().UTC(),
	}
	if tx.ExternalTransactionID != nil {
		ev.ExternalTransactionID = *tx.ExternalTransactionID
	}

	publish := func() {
		pctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := h.pub.Publish(pctx, tx.Reference, ev); err != nil {
			h.log.Error("publish transaction event", "type", eventType, "reference", tx.Reference, "err", err)
		}
	}
	if h.pool == nil || !h.pool.Submit(publish) {
		publish()
	}

	if h.audit == nil {
		return nil
	}
	id := tx.ID
	return h.audit.Create(ctx, models.AuditLog{
		EntityType: models.AuditEntityTransaction,
		EntityID:   &id,
		Action:     eventType,
		Details: map[string]any{
			"reference": tx.Reference,
			"status":    string(tx.Status),
			"amount":    tx.Amount,
			"currency":  string(tx.Currency),
		},
	})
}
