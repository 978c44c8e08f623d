package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JulianaCelis/hatsusound-backend/internal/api/httpx"
	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

// checkoutStatus maps a checkout error code to its HTTP status.
func checkoutStatus(code string) int {
	switch code {
	case services.CodeInvalidAmount, services.CodeInvalidCurrency, services.CodeInvalidEmail, services.CodeInvalidProductData:
		return http.StatusBadRequest
	case services.CodeDuplicateReference, services.CodeRequestInProgress:
		return http.StatusConflict
	case services.CodeAuthError:
		return http.StatusUnauthorized
	case services.CodeForbidden:
		return http.StatusForbidden
	case services.CodeInvalidPaymentToken, services.CodeInvalidPaymentMethod, services.CodeValidationError:
		return http.StatusUnprocessableEntity
	case services.CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case services.CodePaymentGatewayError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError answers with the generic API error body for errors coming out
// of the read/admin services.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	if gwErr, ok := gateway.AsError(err); ok {
		log.Warn("gateway call failed", "kind", gwErr.Kind, "err", err)
		status := http.StatusBadGateway
		if gwErr.Kind == gateway.KindUnavailable {
			status = http.StatusServiceUnavailable
		}
		httpx.WriteError(w, status, "gateway_error", "payment gateway error", nil)
		return
	}
	switch {
	case errors.Is(err, repo.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "resource not found", nil)
	case errors.Is(err, repo.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error", nil)
	}
}
