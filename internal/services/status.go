package services

import (
	"strings"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
)

var gatewayStatuses = map[string]models.TransactionStatus{
	"approved":   models.TxnApproved,
	"declined":   models.TxnDeclined,
	"error":      models.TxnError,
	"expired":    models.TxnExpired,
	"pending":    models.TxnPending,
	"in_process": models.TxnPending,
	"voided":     models.TxnDeclined,
	"failed":     models.TxnError,
	"cancelled":  models.TxnDeclined,
	"rejected":   models.TxnDeclined,
}

// MapStatus translates a gateway status into the internal enum. Unknown
// values map to PENDING; callers should log them (see IsKnownStatus).
func MapStatus(external string) models.TransactionStatus {
	if s, ok := gatewayStatuses[normalizeStatus(external)]; ok {
		return s
	}
	return models.TxnPending
}

func IsKnownStatus(external string) bool {
	_, ok := gatewayStatuses[normalizeStatus(external)]
	return ok
}

func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
