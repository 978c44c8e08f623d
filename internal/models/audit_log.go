package models

import "time"

// AuditEntityTransaction is the entity type of audit rows written when a
// transaction settles.
const AuditEntityTransaction = "transaction"

// AuditLog is one row of a transaction's settlement history. Action is the
// event type (transaction.approved, transaction.expired, ...).
type AuditLog struct {
	ID         string         `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   *string        `json:"entityId,omitempty"`
	Action     string         `json:"action"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"createdAt"`
}
