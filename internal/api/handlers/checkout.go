package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

type checkoutCreator interface {
	CreateCheckout(ctx context.Context, req services.CheckoutRequest) (*services.CheckoutResponse, error)
}

type catalog interface {
	CheckoutFor(ctx context.Context, id string) (services.CheckoutRequest, error)
}

type CheckoutHandler struct {
	checkout checkoutCreator
	products catalog
	log      *slog.Logger
}

// NewCheckoutHandler takes an optional catalog used to fill product data the
// client left out.
func NewCheckoutHandler(c checkoutCreator, products catalog, log *slog.Logger) *CheckoutHandler {
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutHandler{checkout: c, products: products, log: log}
}

// Create handles POST /checkout. 201 on a new checkout, 200 on an
// Idempotency-Key replay.
func (h *CheckoutHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CheckoutRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteCheckoutError(w, http.StatusBadRequest, services.CodeValidationError, services.CheckoutMessage(services.CodeValidationError))
		return
	}
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))

	if req.ProductName == "" && req.ProductID != "" && h.products != nil {
		// Client-sent fields are checked before the lookup so a bad amount or
		// email is reported as such, without touching the catalog.
		var ve *services.ValidationError
		if err := services.ValidateBeforeCatalog(req); errors.As(err, &ve) {
			httpx.WriteCheckoutError(w, checkoutStatus(ve.Code), ve.Code, services.CheckoutMessage(ve.Code))
			return
		}
		if err := h.fillFromCatalog(r.Context(), &req); err != nil {
			h.log.Info("catalog lookup for checkout failed", "product_id", req.ProductID, "err", err)
			httpx.WriteCheckoutError(w, http.StatusBadRequest, services.CodeInvalidProductData, services.CheckoutMessage(services.CodeInvalidProductData))
			return
		}
	}

	resp, err := h.checkout.CreateCheckout(r.Context(), req)
	if err != nil {
		var ce *services.CheckoutError
		if !errors.As(err, &ce) {
			ce = &services.CheckoutError{Code: services.CodeInternalError, Message: services.CheckoutMessage(services.CodeInternalError)}
		}
		httpx.WriteCheckoutError(w, checkoutStatus(ce.Code), ce.Code, ce.Message)
		return
	}

	status := http.StatusCreated
	if resp.Replayed {
		status = http.StatusOK
	}
	httpx.WriteJSON(w, status, resp)
}

// fillFromCatalog copies product attributes and, when the client sent none,
// the price.
func (h *CheckoutHandler) fillFromCatalog(ctx context.Context, req *services.CheckoutRequest) error {
	p, err := h.products.CheckoutFor(ctx, req.ProductID)
	if err != nil {
		return err
	}
	req.ProductName = p.ProductName
	req.ProductCategory = p.ProductCategory
	if req.ProductArtist == "" {
		req.ProductArtist = p.ProductArtist
	}
	if req.ProductGenre == "" {
		req.ProductGenre = p.ProductGenre
	}
	if req.ProductFormat == "" {
		req.ProductFormat = p.ProductFormat
	}
	if req.Amount == 0 {
		req.Amount = p.Amount
		req.Currency = p.Currency
	}
	return nil
}
