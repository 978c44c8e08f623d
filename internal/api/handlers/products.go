package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
)

type productCatalog interface {
	Create(ctx context.Context, p models.Product) (models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, p models.Product) (models.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductHandler struct {
	products productCatalog
	log      *slog.Logger
}

func NewProductHandler(products productCatalog, log *slog.Logger) *ProductHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProductHandler{products: products, log: log}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.products.List(r.Context(), models.ProductFilter{
		Category: models.ProductCategory(strings.ToUpper(q.Get("category"))),
		Query:    strings.TrimSpace(q.Get("q")),
		Limit:    httpx.QueryInt(r, "limit", 0),
		Offset:   httpx.QueryInt(r, "offset", 0),
	})
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	p.ID = ""
	p.IsActive = true
	created, err := h.products.Create(r.Context(), p)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, created)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := httpx.DecodeJSON(r, &p); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	p.ID = chi.URLParam(r, "id")
	updated, err := h.products.Update(r.Context(), p)
	if err != nil {
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, updated)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
