package models

import "time"

type TransactionType string

const (
	TxnPayment TransactionType = "PAYMENT"
	TxnRefund  TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TxnPending  TransactionStatus = "PENDING"
	TxnApproved TransactionStatus = "APPROVED"
	TxnDeclined TransactionStatus = "DECLINED"
	TxnError    TransactionStatus = "ERROR"
	TxnExpired  TransactionStatus = "EXPIRED"
)

// IsTerminal reports whether the gateway considers the transaction settled.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TxnApproved, TxnDeclined, TxnError, TxnExpired:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	return s == TxnPending || s.IsTerminal()
}

type Currency string

const (
	CurrencyCOP Currency = "COP"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

var SupportedCurrencies = []Currency{CurrencyCOP, CurrencyUSD, CurrencyEUR}

func (c Currency) Supported() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

type Transaction struct {
	ID                    string            `json:"id"`
	Reference             string            `json:"reference"`
	Amount                int64             `json:"amount"`
	Currency              Currency          `json:"currency"`
	Status                TransactionStatus `json:"status"`
	Type                  TransactionType   `json:"type"`
	ExternalTransactionID *string           `json:"externalTransactionId,omitempty"`
	ExternalSessionID     *string           `json:"externalSessionId,omitempty"`
	CustomerEmail         string            `json:"customerEmail"`
	CustomerName          *string           `json:"customerName,omitempty"`
	CustomerPhone         *string           `json:"customerPhone,omitempty"`
	Description           string            `json:"description"`
	Metadata              map[string]any    `json:"metadata"`
	ErrorMessage          *string           `json:"errorMessage,omitempty"`
	ProcessedAt           *time.Time        `json:"processedAt,omitempty"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

// TransactionPatch is a partial update. Nil fields are left untouched and
// Metadata is merged key by key into the stored map. Reference is deliberately
// absent: it never changes after creation.
type TransactionPatch struct {
	Status                *TransactionStatus
	ExternalTransactionID *string
	ExternalSessionID     *string
	ErrorMessage          *string
	ProcessedAt           *time.Time
	Metadata              map[string]any
}

// Apply mutates tx in place with the same semantics the stores use.
// ExternalTransactionID and ProcessedAt are write-once and a terminal status
// never goes back to PENDING.
func (p TransactionPatch) Apply(tx *Transaction) {
	if p.Status != nil && !(tx.Status.IsTerminal() && *p.Status == TxnPending) {
		tx.Status = *p.Status
	}
	if p.ExternalTransactionID != nil && tx.ExternalTransactionID == nil {
		v := *p.ExternalTransactionID
		tx.ExternalTransactionID = &v
	}
	if p.ExternalSessionID != nil {
		v := *p.ExternalSessionID
		tx.ExternalSessionID = &v
	}
	if p.ErrorMessage != nil {
		v := *p.ErrorMessage
		tx.ErrorMessage = &v
	}
	if p.ProcessedAt != nil && tx.ProcessedAt == nil {
		v := *p.ProcessedAt
		tx.ProcessedAt = &v
	}
	if len(p.Metadata) > 0 {
		if tx.Metadata == nil {
			tx.Metadata = make(map[string]any, len(p.Metadata))
		}
		for k, v := range p.Metadata {
			tx.Metadata[k] = v
		}
	}
}

// TransactionFilter drives the admin listing endpoint.
type TransactionFilter struct {
	CustomerEmail string
	Status        TransactionStatus
	Limit         int
	Offset        int
}
