package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

type transactionReader interface {
	Get(ctx context.Context, id string) (models.Transaction, error)
	GetByReference(ctx context.Context, reference string) (models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
	History(ctx context.Context, id string) ([]models.AuditLog, error)
}

type transactionSyncer interface {
	SyncTransaction(ctx context.Context, id string) (models.Transaction, error)
}

type TransactionHandler struct {
	txs  transactionReader
	sync transactionSyncer
	log  *slog.Logger
}

func NewTransactionHandler(txs transactionReader, sync transactionSyncer, log *slog.Logger) *TransactionHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionHandler{txs: txs, sync: sync, log: log}
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	tx, err := h.txs.GetByReference(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}

// List serves GET /transactions?email=&status=&limit=&offset= for admins.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txs, err := h.txs.List(r.Context(), models.TransactionFilter{
		CustomerEmail: strings.ToLower(strings.TrimSpace(q.Get("email"))),
		Status:        models.TransactionStatus(strings.ToUpper(q.Get("status"))),
		Limit:         httpx.QueryInt(r, "limit", 0),
		Offset:        httpx.QueryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": txs, "count": len(txs)})
}

// History serves GET /transactions/{id}/history for admins.
func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.txs.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": entries, "count": len(entries)})
}

// Sync asks the gateway for the current status of one transaction.
func (h *TransactionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	tx, err := h.sync.SyncTransaction(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, services.ErrNoExternalTransaction) {
		httpx.WriteError(w, http.StatusConflict, "no_gateway_transaction", err.Error(), nil)
		return
	}
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tx)
}
