package repository

import (
	"context"
	"errors"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

type Users interface {
	Create(ctx context.Context, u models.User) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Update(ctx context.Context, u models.User) error
}

type Products interface {
	Create(ctx context.Context, p models.Product) (models.Product, error)
	GetByID(ctx context.Context, id string) (models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Update(ctx context.Context, p models.Product) (models.Product, error)
	Deactivate(ctx context.Context, id string) error
}

// Transactions is the transaction store the checkout and webhook flows
// converge on. Update is a single atomic row write; it returns ErrNotFound
// when no row has the given id.
type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	Update(ctx context.Context, id string, patch models.TransactionPatch) (models.Transaction, error)
	FindByID(ctx context.Context, id string) (models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (models.Transaction, error)
	FindByExternalTransactionID(ctx context.Context, externalID string) (models.Transaction, error)

	// ListStalePending returns PENDING rows created before olderThan, oldest first.
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error)
	List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
	// ListByEntity returns an entity's entries oldest first.
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error)
}
