package services

import (
	"errors"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

// Checkout error codes. They are the stable, machine-readable part of a
// failed checkout response.
const (
	CodeInvalidAmount        = "INVALID_AMOUNT"
	CodeInvalidCurrency      = "INVALID_CURRENCY"
	CodeInvalidEmail         = "INVALID_EMAIL"
	CodeInvalidProductData   = "INVALID_PRODUCT_DATA"
	CodeDuplicateReference   = "DUPLICATE_REFERENCE"
	CodeRequestInProgress    = "REQUEST_IN_PROGRESS"
	CodeAuthError            = "AUTH_ERROR"
	CodeForbidden            = "FORBIDDEN"
	CodeInvalidPaymentToken  = "INVALID_PAYMENT_TOKEN"
	CodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	CodeValidationError      = "VALIDATION_ERROR"
	CodeServiceUnavailable   = "SERVICE_UNAVAILABLE"
	CodePaymentGatewayError  = "PAYMENT_GATEWAY_ERROR"
	CodeInternalError        = "INTERNAL_ERROR"
)

var checkoutMessages = map[string]string{
	CodeInvalidAmount:        "El monto de la compra no es válido. El mínimo es 1000.",
	CodeInvalidCurrency:      "La moneda seleccionada no está soportada.",
	CodeInvalidEmail:         "El correo electrónico no es válido.",
	CodeInvalidProductData:   "Los datos del producto están incompletos.",
	CodeDuplicateReference:   "Ya existe una transacción con esta referencia.",
	CodeRequestInProgress:    "Ya hay una compra en proceso para esta solicitud.",
	CodeAuthError:            "No fue posible autenticarse con la pasarela de pagos.",
	CodeForbidden:            "La pasarela de pagos rechazó la operación.",
	CodeInvalidPaymentToken:  "El token del método de pago no es válido o expiró.",
	CodeInvalidPaymentMethod: "El método de pago no es válido.",
	CodeValidationError:      "Los datos del pago no son válidos.",
	CodeServiceUnavailable:   "El servicio de pagos no está disponible. Intenta de nuevo más tarde.",
	CodePaymentGatewayError:  "Ocurrió un error al procesar el pago.",
	CodeInternalError:        "Ocurrió un error interno al procesar la compra.",
}

// CheckoutMessage returns the user-facing text for a checkout error code.
func CheckoutMessage(code string) string {
	if m, ok := checkoutMessages[code]; ok {
		return m
	}
	return checkoutMessages[CodeInternalError]
}

// CheckoutError is the only error CreateCheckout returns. Message is safe to
// show to the customer; Err keeps the technical cause for logs.
type CheckoutError struct {
	Code    string
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *CheckoutError) Unwrap() error { return e.Err }

func newCheckoutError(code string, err error) *CheckoutError {
	return &CheckoutError{Code: code, Message: CheckoutMessage(code), Err: err}
}

// classifyCheckoutError maps any failure from the checkout path onto a code.
func classifyCheckoutError(err error) *CheckoutError {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return newCheckoutError(ve.Code, err)
	}
	if errors.Is(err, repo.ErrConflict) {
		return newCheckoutError(CodeDuplicateReference, err)
	}
	if gwErr, ok := gateway.AsError(err); ok {
		return newCheckoutError(gatewayErrorCode(gwErr), err)
	}
	return newCheckoutError(CodeInternalError, err)
}

func gatewayErrorCode(e *gateway.Error) string {
	switch e.Kind {
	case gateway.KindAuth:
		return CodeAuthError
	case gateway.KindForbidden:
		return CodeForbidden
	case gateway.KindValidation:
		switch e.Reason {
		case gateway.ReasonPaymentToken:
			return CodeInvalidPaymentToken
		case gateway.ReasonPaymentMethod:
			return CodeInvalidPaymentMethod
		}
		return CodeValidationError
	case gateway.KindUnavailable:
		return CodeServiceUnavailable
	}
	return CodePaymentGatewayError
}
