package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

func NewTransactions(pool *pgxpool.Pool) repository.Transactions {
	return &transactionsRepo{pool: pool}
}

const txColumns = `id, reference, amount, currency, status, type,
  external_transaction_id, external_session_id,
  customer_email, customer_name, customer_phone,
  description, metadata, error_message, processed_at, created_at, updated_at`

func scanTx(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID, &tx.Reference, &tx.Amount, &tx.Currency, &tx.Status, &tx.Type,
		&tx.ExternalTransactionID, &tx.ExternalSessionID,
		&tx.CustomerEmail, &tx.CustomerName, &tx.CustomerPhone,
		&tx.Description, &tx.Metadata, &tx.ErrorMessage, &tx.ProcessedAt, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, repository.ErrNotFound
	}
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}
	return tx, err
}

func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Metadata == nil {
		tx.Metadata = map[string]any{}
	}
	q := `
INSERT INTO transactions (
  id, reference, amount, currency, status, type,
  external_transaction_id, external_session_id,
  customer_email, customer_name, customer_phone,
  description, metadata, error_message
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13::jsonb,$14)
RETURNING ` + txColumns
	out, err := scanTx(r.pool.QueryRow(ctx, q,
		tx.ID, tx.Reference, tx.Amount, tx.Currency, tx.Status, tx.Type,
		tx.ExternalTransactionID, tx.ExternalSessionID,
		tx.CustomerEmail, tx.CustomerName, tx.CustomerPhone,
		tx.Description, tx.Metadata, tx.ErrorMessage,
	))
	if isUniqueViolation(err) {
		return models.Transaction{}, fmt.Errorf("transaction reference %q: %w", tx.Reference, repository.ErrConflict)
	}
	return out, err
}

// Update is one statement so concurrent checkout and webhook writers never
// interleave a read-modify-write. The external id is write-once, a terminal
// status is never set back to PENDING and metadata is merged with jsonb ||.
func (r *transactionsRepo) Update(ctx context.Context, id string, p models.TransactionPatch) (models.Transaction, error) {
	var meta map[string]any
	if len(p.Metadata) > 0 {
		meta = p.Metadata
	}
	q := `
UPDATE transactions SET
  status                  = CASE
                              WHEN $2::text = 'PENDING' AND status <> 'PENDING' THEN status
                              ELSE COALESCE($2::text, status)
                            END,
  external_transaction_id = COALESCE(external_transaction_id, $3),
  external_session_id     = COALESCE($4, external_session_id),
  error_message           = COALESCE($5, error_message),
  processed_at            = COALESCE(processed_at, $6),
  metadata                = metadata || COALESCE($7::jsonb, '{}'::jsonb),
  updated_at              = now()
WHERE id = $1
RETURNING ` + txColumns
	out, err := scanTx(r.pool.QueryRow(ctx, q,
		id, p.Status, p.ExternalTransactionID, p.ExternalSessionID, p.ErrorMessage, p.ProcessedAt, meta,
	))
	if isUniqueViolation(err) {
		return models.Transaction{}, fmt.Errorf("external transaction id: %w", repository.ErrConflict)
	}
	return out, err
}

func (r *transactionsRepo) FindByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTx(r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) FindByReference(ctx context.Context, reference string) (models.Transaction, error) {
	return scanTx(r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE reference=$1`, reference))
}

func (r *transactionsRepo) FindByExternalTransactionID(ctx context.Context, externalID string) (models.Transaction, error) {
	return scanTx(r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE external_transaction_id=$1`, externalID))
}

func (r *transactionsRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE status = 'PENDING' AND created_at < $1
		  ORDER BY created_at ASC
		  LIMIT $2`,
		olderThan, limit,
	)
	if err != nil {
		return nil, err
	}
	return collectTxs(rows)
}

func (r *transactionsRepo) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+txColumns+`
		   FROM transactions
		  WHERE ($1 = '' OR customer_email = $1)
		    AND ($2 = '' OR status = $2)
		  ORDER BY created_at DESC
		  LIMIT $3 OFFSET $4`,
		f.CustomerEmail, string(f.Status), f.Limit, f.Offset,
	)
	if err != nil {
		return nil, err
	}
	return collectTxs(rows)
}

func collectTxs(rows pgx.Rows) ([]models.Transaction, error) {
	defer rows.Close()
	out := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
