package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

type WebhookTransaction struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Reference     string `json:"reference"`
	AmountInCents int64  `json:"amount_in_cents"`
	Currency      string `json:"currency"`
	CustomerEmail string `json:"customer_email"`
	StatusMessage string `json:"status_message,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// WebhookEvent is the body the gateway posts on every transaction update.
type WebhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Transaction WebhookTransaction `json:"transaction"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
	Signature struct {
		Checksum   string   `json:"checksum"`
		Properties []string `json:"properties"`
	} `json:"signature"`
}

type WebhookErrorKind string

const (
	WebhookInvalidPayload      WebhookErrorKind = "invalid_payload"
	WebhookInvalidSignature    WebhookErrorKind = "invalid_signature"
	WebhookTransactionNotFound WebhookErrorKind = "transaction_not_found"
)

type WebhookError struct {
	Kind WebhookErrorKind
	Msg  string
	Err  error
}

func (e *WebhookError) Error() string {
	msg := "webhook " + string(e.Kind)
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *WebhookError) Unwrap() error { return e.Err }

type WebhookService struct {
	store repo.Transactions
	gw    gateway.Gateway
	hooks StatusHooks
	log   *slog.Logger
	now   func() time.Time
}

func NewWebhookService(store repo.Transactions, gw gateway.Gateway, hooks StatusHooks, log *slog.Logger) *WebhookService {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookService{store: store, gw: gw, hooks: hooks, log: log, now: time.Now}
}

// ProcessWebhook reconciles one delivery. It is safe to call again with the
// same body: the stored state converges and the status hook runs once per
// delivery. An event older than the last one applied is acknowledged (nil)
// and ignored. Any returned error should make the caller answer non-2xx so
// the gateway retries.
func (s *WebhookService) ProcessWebhook(ctx context.Context, body []byte) error {
	result, err := s.process(ctx, body)
	if err != nil {
		result = webhookErrorResult(err)
	}
	metrics.WebhooksTotal.WithLabelValues(result).Inc()
	return err
}

func (s *WebhookService) process(ctx context.Context, body []byte) (string, error) {
	ev, err := decodeWebhook(body)
	if err != nil {
		return "", err
	}
	wtx := ev.Data.Transaction

	canonical, err := gateway.CanonicalWebhookPayload(body)
	if err != nil {
		return "", &WebhookError{Kind: WebhookInvalidPayload, Err: err}
	}
	if !s.gw.VerifySignature(canonical, ev.Signature.Checksum) {
		s.log.Warn("webhook signature mismatch", "event", ev.Event, "wompi_id", wtx.ID)
		return "", &WebhookError{Kind: WebhookInvalidSignature}
	}

	tx, err := s.store.FindByExternalTransactionID(ctx, wtx.ID)
	if errors.Is(err, repo.ErrNotFound) {
		s.log.Error("webhook for unknown transaction", "wompi_id", wtx.ID, "reference", wtx.Reference)
		return "", &WebhookError{Kind: WebhookTransactionNotFound, Msg: wtx.ID, Err: err}
	}
	if err != nil {
		return "", fmt.Errorf("find transaction %s: %w", wtx.ID, err)
	}

	if !IsKnownStatus(wtx.Status) {
		s.log.Warn("unknown gateway status, treating as PENDING", "status", wtx.Status, "reference", tx.Reference)
	}
	now := s.now()
	eventTime := time.Unix(ev.Timestamp, 0).UTC()
	update := statusUpdate{
		Status:       MapStatus(wtx.Status),
		ObservedAt:   eventTime,
		ErrorMessage: wtx.StatusMessage,
		Metadata: map[string]any{
			"wompiStatus":        wtx.Status,
			"wompiStatusMessage": wtx.StatusMessage,
			"wompiUpdatedAt":     wtx.UpdatedAt,
			"wompiReference":     wtx.Reference,
			"webhookEvent":       ev.Event,
			metaWebhookTimestamp: eventTime.Format(time.RFC3339),
			"webhookProcessedAt": now.UTC().Format(time.RFC3339),
		},
	}

	updated, applied, err := applyStatus(ctx, s.store, tx, update, now)
	if err != nil {
		return "", fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	if !applied {
		s.log.Info("stale webhook ignored", "reference", tx.Reference, "current", tx.Status, "incoming", update.Status, "event_time", eventTime)
		return "stale", nil
	}

	s.log.Info("webhook applied", "reference", updated.Reference, "status", updated.Status, "event", ev.Event)
	dispatchHook(ctx, s.hooks, updated, s.log)
	return "applied", nil
}

func webhookErrorResult(err error) string {
	var we *WebhookError
	if errors.As(err, &we) {
		return string(we.Kind)
	}
	return "error"
}

func decodeWebhook(body []byte) (WebhookEvent, error) {
	var ev WebhookEvent
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&ev); err != nil {
		return ev, &WebhookError{Kind: WebhookInvalidPayload, Msg: "malformed JSON", Err: err}
	}
	t := ev.Data.Transaction
	var missing string
	switch {
	case ev.Event == "":
		missing = "event"
	case t.ID == "":
		missing = "data.transaction.id"
	case t.Status == "":
		missing = "data.transaction.status"
	case t.Reference == "":
		missing = "data.transaction.reference"
	case t.AmountInCents <= 0:
		missing = "data.transaction.amount_in_cents"
	case t.CustomerEmail == "":
		missing = "data.transaction.customer_email"
	case ev.Timestamp <= 0:
		missing = "timestamp"
	case ev.Signature.Checksum == "":
		missing = "signature.checksum"
	}
	if missing != "" {
		return ev, &WebhookError{Kind: WebhookInvalidPayload, Msg: "missing or invalid " + missing}
	}
	return ev, nil
}
