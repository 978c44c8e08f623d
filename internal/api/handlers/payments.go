package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/api/validate"
	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
)

type cardTokenizer interface {
	CreatePaymentMethodToken(ctx context.Context, card gateway.CardData) (string, error)
}

type PaymentHandler struct {
	gw  cardTokenizer
	log *slog.Logger
}

func NewPaymentHandler(gw cardTokenizer, log *slog.Logger) *PaymentHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PaymentHandler{gw: gw, log: log}
}

// TokenizeCard proxies card data to the gateway and returns the token used
// as paymentMethodToken in a direct checkout. Card data is never stored or
// logged.
func (h *PaymentHandler) TokenizeCard(w http.ResponseWriter, r *http.Request) {
	var card gateway.CardData
	if err := httpx.DecodeJSON(r, &card); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "bad_request", err.Error(), nil)
		return
	}
	var errs validate.Errs
	errs.Add(validate.Required("number", card.Number))
	errs.Add(validate.Required("cvc", card.CVC))
	errs.Add(validate.Required("exp_month", card.ExpMonth))
	errs.Add(validate.Required("exp_year", card.ExpYear))
	errs.Add(validate.Required("card_holder", card.CardHolder))
	if len(errs) > 0 {
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", "invalid card data", errs)
		return
	}

	token, err := h.gw.CreatePaymentMethodToken(r.Context(), card)
	if err != nil {
		if gwErr, ok := gateway.AsError(err); ok && gwErr.Kind == gateway.KindValidation {
			httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_card", "the gateway rejected the card data", nil)
			return
		}
		writeError(w, h.log, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"token": token})
}
