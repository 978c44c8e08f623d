package services

import (
	"context"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

const metaWebhookTimestamp = "webhookTimestamp"

// statusUpdate is one observation of the gateway's view of a transaction.
type statusUpdate struct {
	Status models.TransactionStatus
	// ObservedAt is when the gateway emitted the observation. Zero skips the
	// ordering check.
	ObservedAt   time.Time
	ErrorMessage string
	Metadata     map[string]any
}

// isStale reports whether u must not be applied on top of tx: it would move a
// settled transaction back to PENDING, or it is older than the last event
// already applied.
func isStale(tx models.Transaction, u statusUpdate) bool {
	if tx.Status.IsTerminal() && u.Status == models.TxnPending {
		return true
	}
	if u.ObservedAt.IsZero() {
		return false
	}
	last, ok := lastObservedAt(tx)
	return ok && u.ObservedAt.Before(last)
}

func lastObservedAt(tx models.Transaction) (time.Time, bool) {
	raw, ok := tx.Metadata[metaWebhookTimestamp].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// applyStatus writes u to the store unless it is stale. It reports whether
// the update was applied.
func applyStatus(ctx context.Context, store repo.Transactions, tx models.Transaction, u statusUpdate, now time.Time) (models.Transaction, bool, error) {
	if isStale(tx, u) {
		return tx, false, nil
	}
	status := u.Status
	patch := models.TransactionPatch{Status: &status, Metadata: u.Metadata}
	if status.IsTerminal() {
		patch.ProcessedAt = &now
	}
	if u.ErrorMessage != "" {
		msg := u.ErrorMessage
		patch.ErrorMessage = &msg
	}
	updated, err := store.Update(ctx, tx.ID, patch)
	if err != nil {
		return tx, false, err
	}
	return updated, true, nil
}
