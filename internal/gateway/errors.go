package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind is the closed set of failure categories an adapter reports.
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindForbidden   ErrorKind = "forbidden"
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindUnavailable ErrorKind = "unavailable"
	KindUnknown     ErrorKind = "unknown"
)

// Reason refines KindValidation.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonPaymentToken  Reason = "payment_token"
	ReasonPaymentMethod Reason = "payment_method"
)

// Error is returned by adapters instead of raw HTTP or transport errors.
type Error struct {
	Kind       ErrorKind
	Reason     Reason
	HTTPStatus int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("gateway %s error", e.Kind)
	if e.HTTPStatus != 0 {
		msg += fmt.Sprintf(" (%d)", e.HTTPStatus)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindForStatus maps an HTTP status code onto an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch {
	case status == 401:
		return KindAuth
	case status == 403:
		return KindForbidden
	case status == 404:
		return KindNotFound
	case status == 422:
		return KindValidation
	case status >= 500:
		return KindUnavailable
	}
	return KindUnknown
}

// AsError extracts a *Error from err's chain.
func AsError(err error) (*Error, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr, true
	}
	return nil, false
}
