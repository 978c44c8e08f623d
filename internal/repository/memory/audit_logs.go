package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
)

type AuditLogStore struct {
	mu   sync.Mutex
	seq  int
	logs []models.AuditLog
}

func NewAuditLogStore() *AuditLogStore { return &AuditLogStore{} }

func (s *AuditLogStore) Create(ctx context.Context, l models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	l.ID = strconv.Itoa(s.seq)
	l.CreatedAt = time.Now()
	s.logs = append(s.logs, l)
	return nil
}

func (s *AuditLogStore) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AuditLog
	for _, l := range s.logs {
		if l.EntityType != entityType || l.EntityID == nil || *l.EntityID != entityID {
			continue
		}
		out = append(out, l)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Entries returns a snapshot of everything written so far.
func (s *AuditLogStore) Entries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AuditLog(nil), s.logs...)
}
