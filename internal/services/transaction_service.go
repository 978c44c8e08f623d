package services

import (
	"context"
	"log/slog"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// TransactionService is the read side over stored transactions and their
// settlement history.
type TransactionService struct {
	trx   repo.Transactions
	audit repo.AuditLogs
	log   *slog.Logger
}

// NewTransactionService wires the reader. audit may be nil, in which case
// History always returns an empty list.
func NewTransactionService(t repo.Transactions, audit repo.AuditLogs, log *slog.Logger) *TransactionService {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionService{trx: t, audit: audit, log: log}
}

func (s *TransactionService) Get(ctx context.Context, id string) (models.Transaction, error) {
	return s.trx.FindByID(ctx, id)
}

func (s *TransactionService) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	return s.trx.FindByReference(ctx, reference)
}

// List clamps the page size and ignores an unknown status filter value.
func (s *TransactionService) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if f.Status != "" && !f.Status.Valid() {
		s.log.Debug("ignoring unknown status filter", "status", f.Status)
		f.Status = ""
	}
	return s.trx.List(ctx, f)
}

// History returns the audit entries written for a transaction as it settled.
// It fails with repository.ErrNotFound when the transaction does not exist.
func (s *TransactionService) History(ctx context.Context, id string) ([]models.AuditLog, error) {
	if _, err := s.trx.FindByID(ctx, id); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []models.AuditLog{}, nil
	}
	return s.audit.ListByEntity(ctx, models.AuditEntityTransaction, id, maxListLimit)
}
