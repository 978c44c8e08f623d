package gateway

import "time"

// Flow is the checkout variant a request was built for.
type Flow string

const (
	// FlowDirect charges a pre-tokenized card.
	FlowDirect Flow = "direct"
	// FlowIntent leaves payment method entry to the hosted checkout page.
	FlowIntent Flow = "intent"
)

const PaymentMethodCard = "CARD"

type PaymentMethod struct {
	Type         string `json:"type"`
	Token        string `json:"token,omitempty"`
	Installments int    `json:"installments"`
}

type CustomerData struct {
	FullName    string `json:"full_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// TransactionRequest is the body sent to the gateway. Build it with
// NewTransactionRequest so the flow and payment method always agree.
type TransactionRequest struct {
	Flow Flow `json:"-"`

	AcceptanceToken string        `json:"acceptance_token"`
	AmountInCents   int64         `json:"amount_in_cents"`
	Currency        string        `json:"currency"`
	CustomerEmail   string        `json:"customer_email"`
	Reference       string        `json:"reference"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	RedirectURL     string        `json:"redirect_url,omitempty"`
	ExpirationTime  string        `json:"expiration_time,omitempty"`
	CustomerData    *CustomerData `json:"customer_data,omitempty"`
	Signature       string        `json:"signature,omitempty"`
}

type RequestInput struct {
	AmountInCents      int64
	Currency           string
	CustomerEmail      string
	CustomerName       string
	CustomerPhone      string
	Reference          string
	PaymentMethodToken string
	AcceptanceToken    string
	RedirectURL        string
	ExpiresAt          time.Time
}

// NewTransactionRequest picks the direct flow when a payment method token is
// present and the intent flow otherwise. Both use a single installment card.
func NewTransactionRequest(in RequestInput) TransactionRequest {
	req := TransactionRequest{
		Flow:            FlowIntent,
		AcceptanceToken: in.AcceptanceToken,
		AmountInCents:   in.AmountInCents,
		Currency:        in.Currency,
		CustomerEmail:   in.CustomerEmail,
		Reference:       in.Reference,
		PaymentMethod:   PaymentMethod{Type: PaymentMethodCard, Installments: 1},
		RedirectURL:     in.RedirectURL,
	}
	if !in.ExpiresAt.IsZero() {
		req.ExpirationTime = in.ExpiresAt.UTC().Format(time.RFC3339)
	}
	if in.PaymentMethodToken != "" {
		req.Flow = FlowDirect
		req.PaymentMethod.Token = in.PaymentMethodToken
	}
	if in.CustomerName != "" || in.CustomerPhone != "" {
		req.CustomerData = &CustomerData{FullName: in.CustomerName, PhoneNumber: in.CustomerPhone}
	}
	return req
}
