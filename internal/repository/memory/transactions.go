// Package memory holds in-process stores used by the service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository"
	"github.com/google/uuid"
)

type TransactionStore struct {
	mu    sync.RWMutex
	byID  map[string]models.Transaction
	byRef map[string]string
	byExt map[string]string
	now   func() time.Time
}

func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		byID:  make(map[string]models.Transaction),
		byRef: make(map[string]string),
		byExt: make(map[string]string),
		now:   time.Now,
	}
}

var _ repository.Transactions = (*TransactionStore)(nil)

// SetClock replaces the clock used for created/updated timestamps.
func (s *TransactionStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *TransactionStore) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return models.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byRef[tx.Reference]; ok {
		return models.Transaction{}, fmt.Errorf("transaction reference %q: %w", tx.Reference, repository.ErrConflict)
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := s.now()
	tx.CreatedAt, tx.UpdatedAt = now, now
	tx.Metadata = cloneMap(tx.Metadata)

	s.byID[tx.ID] = tx
	s.byRef[tx.Reference] = tx.ID
	if tx.ExternalTransactionID != nil {
		s.byExt[*tx.ExternalTransactionID] = tx.ID
	}
	return copyTx(tx), nil
}

func (s *TransactionStore) Update(ctx context.Context, id string, p models.TransactionPatch) (models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return models.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	if p.ExternalTransactionID != nil && tx.ExternalTransactionID == nil {
		if other, taken := s.byExt[*p.ExternalTransactionID]; taken && other != id {
			return models.Transaction{}, fmt.Errorf("external transaction id: %w", repository.ErrConflict)
		}
	}
	tx = copyTx(tx)
	p.Apply(&tx)
	tx.UpdatedAt = s.now()

	s.byID[id] = tx
	if tx.ExternalTransactionID != nil {
		s.byExt[*tx.ExternalTransactionID] = id
	}
	return copyTx(tx), nil
}

func (s *TransactionStore) FindByID(ctx context.Context, id string) (models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return models.Transaction{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	return copyTx(tx), nil
}

func (s *TransactionStore) FindByReference(ctx context.Context, reference string) (models.Transaction, error) {
	s.mu.RLock()
	id, ok := s.byRef[reference]
	s.mu.RUnlock()
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *TransactionStore) FindByExternalTransactionID(ctx context.Context, externalID string) (models.Transaction, error) {
	s.mu.RLock()
	id, ok := s.byExt[externalID]
	s.mu.RUnlock()
	if !ok {
		return models.Transaction{}, repository.ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *TransactionStore) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.filter(func(tx models.Transaction) bool {
		return tx.Status == models.TxnPending && tx.CreatedAt.Before(olderThan)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *TransactionStore) List(ctx context.Context, f models.TransactionFilter) ([]models.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := s.filter(func(tx models.Transaction) bool {
		return (f.CustomerEmail == "" || tx.CustomerEmail == f.CustomerEmail) &&
			(f.Status == "" || tx.Status == f.Status)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	start := f.Offset
	if start > len(out) {
		return []models.Transaction{}, nil
	}
	end := len(out)
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return out[start:end], nil
}

func (s *TransactionStore) filter(keep func(models.Transaction) bool) []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Transaction{}
	for _, tx := range s.byID {
		if keep(tx) {
			out = append(out, copyTx(tx))
		}
	}
	return out
}

func copyTx(tx models.Transaction) models.Transaction {
	tx.Metadata = cloneMap(tx.Metadata)
	return tx
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
