// Package events publishes transaction status changes to a message broker.
package events

import (
	"context"
	"time"
)

// Publisher is the interface services use to publish events.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
	Close() error
}

// TransactionEvent is the payload published when a transaction settles.
type TransactionEvent struct {
	Type                  string    `json:"type"` // transaction.approved, transaction.declined, ...
	TransactionID         string    `json:"transactionId"`
	Reference             string    `json:"reference"`
	Status                string    `json:"status"`
	Amount                int64     `json:"amount"`
	Currency              string    `json:"currency"`
	CustomerEmail         string    `json:"customerEmail"`
	ExternalTransactionID string    `json:"externalTransactionId,omitempty"`
	OccurredAt            time.Time `json:"occurredAt"`
}

// Noop drops every event. Used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }
