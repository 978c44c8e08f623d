// Package gateway is the port the checkout core uses to talk to the external
// payment processor. Adapters live in sub-packages.
package gateway

import "context"

// Gateway abstracts the money mover. Every network call takes a context so
// callers can bound it with a timeout.
type Gateway interface {
	CreateTransaction(ctx context.Context, req TransactionRequest) (*Transaction, error)
	GetTransaction(ctx context.Context, id string) (*Transaction, error)

	// VerifySignature checks checksum against the canonical webhook payload.
	VerifySignature(payload []byte, checksum string) bool

	CheckoutURL(transactionID string) string
	CreatePaymentMethodToken(ctx context.Context, card CardData) (string, error)
}

// Transaction is the gateway's view of a payment.
type Transaction struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	AmountInCents int64  `json:"amount_in_cents"`
	Currency      string `json:"currency"`
	Reference     string `json:"reference"`
	CustomerEmail string `json:"customer_email"`
	StatusMessage string `json:"status_message,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

type CardData struct {
	Number     string `json:"number"`
	CVC        string `json:"cvc"`
	ExpMonth   string `json:"exp_month"`
	ExpYear    string `json:"exp_year"`
	CardHolder string `json:"card_holder"`
}
