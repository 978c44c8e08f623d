package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

// Repositories bundles every store backed by one pool.
type Repositories struct {
	Users        repo.Users
	Products     repo.Products
	Transactions repo.Transactions
	AuditLogs    repo.AuditLogs

	pool *pgxpool.Pool
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Users:        &usersRepo{pool},
		Products:     &productsRepo{pool},
		Transactions: &transactionsRepo{pool},
		AuditLogs:    &auditLogsRepo{pool},
		pool:         pool,
	}
}

// Ping backs the /ready probe.
func (r Repositories) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
