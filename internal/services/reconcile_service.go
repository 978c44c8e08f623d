package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JulianaCelis/hatsusound-backend/internal/gateway"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	repo "github.com/JulianaCelis/hatsusound-backend/internal/repository"
)

// ErrNoExternalTransaction is returned by SyncTransaction for a record the
// gateway never acknowledged.
var ErrNoExternalTransaction = errors.New("transaction has no gateway id")

type ReconcileConfig struct {
	Interval    time.Duration
	StaleAfter  time.Duration
	ExpireAfter time.Duration
	BatchSize   int
	Workers     int
}

func (c ReconcileConfig) withDefaults() ReconcileConfig {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = 10 * time.Minute
	}
	if c.ExpireAfter <= 0 {
		c.ExpireAfter = 24 * time.Hour
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.Workers <= 0 {
		c.Workers = 5
	}
	return c
}

type ReconcileResult struct {
	Checked int `json:"checked"`
	Updated int `json:"updated"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// ReconcileService finds transactions stuck in PENDING and asks the gateway
// what actually happened. It covers lost webhooks and checkouts that never
// reached the gateway.
type ReconcileService struct {
	store repo.Transactions
	gw    gateway.Gateway
	hooks StatusHooks
	cfg   ReconcileConfig
	log   *slog.Logger
	now   func() time.Time
}

func NewReconcileService(store repo.Transactions, gw gateway.Gateway, hooks StatusHooks, cfg ReconcileConfig, log *slog.Logger) *ReconcileService {
	if log == nil {
		log = slog.Default()
	}
	return &ReconcileService{store: store, gw: gw, hooks: hooks, cfg: cfg.withDefaults(), log: log, now: time.Now}
}

// Run reconciles once immediately and then on every tick until ctx is done.
func (s *ReconcileService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	s.log.Info("reconciler started", "interval", s.cfg.Interval, "stale_after", s.cfg.StaleAfter)
	for {
		if _, err := s.ReconcileOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("reconcile pass failed", "err", err)
		}
		select {
		case <-ctx.Done():
			s.log.Info("reconciler stopped")
			return
		case <-ticker.C:
		}
	}
}

// ReconcileOnce processes one batch of stale PENDING transactions.
func (s *ReconcileService) ReconcileOnce(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult
	pending, err := s.store.ListStalePending(ctx, s.now().Add(-s.cfg.StaleAfter), s.cfg.BatchSize)
	if err != nil {
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		return res, fmt.Errorf("list stale transactions: %w", err)
	}
	res.Checked = len(pending)
	if len(pending) == 0 {
		metrics.ReconcileRuns.WithLabelValues("ok").Inc()
		return res, nil
	}

	var updated, expired, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, tx := range pending {
		g.Go(func() error {
			changed, err := s.sync(gctx, tx)
			switch {
			case err != nil:
				failed.Add(1)
				s.log.Warn("reconcile transaction", "reference", tx.Reference, "err", err)
			case changed && tx.ExternalTransactionID == nil:
				expired.Add(1)
			case changed:
				updated.Add(1)
			}
			// One failed lookup must not cancel the rest of the batch.
			return nil
		})
	}
	_ = g.Wait()

	res.Updated, res.Expired, res.Failed = int(updated.Load()), int(expired.Load()), int(failed.Load())
	metrics.ReconcileRuns.WithLabelValues("ok").Inc()
	s.log.Info("reconcile pass finished", "checked", res.Checked, "updated", res.Updated, "expired", res.Expired, "failed", res.Failed)
	return res, nil
}

// SyncTransaction refreshes a single transaction from the gateway.
func (s *ReconcileService) SyncTransaction(ctx context.Context, id string) (models.Transaction, error) {
	tx, err := s.store.FindByID(ctx, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if tx.ExternalTransactionID == nil {
		return tx, ErrNoExternalTransaction
	}
	if _, err := s.sync(ctx, tx); err != nil {
		return tx, err
	}
	return s.store.FindByID(ctx, id)
}

// sync reports whether the stored status changed.
func (s *ReconcileService) sync(ctx context.Context, tx models.Transaction) (bool, error) {
	now := s.now()
	if tx.ExternalTransactionID == nil {
		if now.Sub(tx.CreatedAt) < s.cfg.ExpireAfter {
			return false, nil
		}
		return s.apply(ctx, tx, statusUpdate{
			Status:       models.TxnExpired,
			ErrorMessage: "expired without a gateway transaction",
			Metadata:     map[string]any{"reconciledAt": now.UTC().Format(time.RFC3339)},
		}, now)
	}

	remote, err := s.gw.GetTransaction(ctx, *tx.ExternalTransactionID)
	if err != nil {
		return false, err
	}
	if !IsKnownStatus(remote.Status) {
		s.log.Warn("unknown gateway status, treating as PENDING", "status", remote.Status, "reference", tx.Reference)
	}
	return s.apply(ctx, tx, statusUpdate{
		Status:       MapStatus(remote.Status),
		ErrorMessage: remote.StatusMessage,
		Metadata: map[string]any{
			"wompiStatus":        remote.Status,
			"wompiStatusMessage": remote.StatusMessage,
			"wompiUpdatedAt":     remote.UpdatedAt,
			"reconciledAt":       now.UTC().Format(time.RFC3339),
		},
	}, now)
}

func (s *ReconcileService) apply(ctx context.Context, tx models.Transaction, u statusUpdate, now time.Time) (bool, error) {
	if u.Status == tx.Status {
		return false, nil
	}
	updated, applied, err := applyStatus(ctx, s.store, tx, u, now)
	if err != nil || !applied {
		return false, err
	}
	s.log.Info("transaction reconciled", "reference", updated.Reference, "from", tx.Status, "to", updated.Status)
	dispatchHook(ctx, s.hooks, updated, s.log)
	return true, nil
}
