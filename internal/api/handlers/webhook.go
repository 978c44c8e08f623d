package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

type webhookProcessor interface {
	ProcessWebhook(ctx context.Context, body []byte) error
}

type WebhookHandler struct {
	svc webhookProcessor
	log *slog.Logger
}

func NewWebhookHandler(svc webhookProcessor, log *slog.Logger) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{svc: svc, log: log}
}

// Wompi answers 200 only when the delivery was applied or acknowledged. Any
// other status makes the gateway retry.
func (h *WebhookHandler) Wompi(w http.ResponseWriter, r *http.Request) {
	body, err := httpx.ReadBody(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, string(services.WebhookInvalidPayload), err.Error(), nil)
		return
	}

	err = h.svc.ProcessWebhook(r.Context(), body)
	if err == nil {
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	var we *services.WebhookError
	if !errors.As(err, &we) {
		h.log.Error("webhook processing failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "webhook processing failed", nil)
		return
	}
	status := http.StatusBadRequest
	switch we.Kind {
	case services.WebhookInvalidSignature:
		status = http.StatusUnauthorized
	case services.WebhookTransactionNotFound:
		status = http.StatusNotFound
	}
	httpx.WriteError(w, status, string(we.Kind), we.Error(), nil)
}
