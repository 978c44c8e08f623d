package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/JulianaCelis/hatsusound-backend/internal/events"
	"github.com/JulianaCelis/hatsusound-backend/internal/gateway/wompi"
	"github.com/JulianaCelis/hatsusound-backend/internal/metrics"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
	"github.com/JulianaCelis/hatsusound-backend/internal/worker"
)

// newReconciler builds a reconcile service whose hooks publish and audit
// the same way the API server does. The returned func drains the pool and
// closes the publisher.
func newReconciler(e *env, staleAfter time.Duration, batch int) (*services.ReconcileService, func(), error) {
	metrics.Init()
	pub, err := events.New(e.cfg.Events)
	if err != nil {
		return nil, nil, err
	}
	wp := worker.NewPool(e.cfg.Workers)
	hooks := services.NewNotifyingHooks(e.repos.AuditLogs, pub, wp, e.log)
	gw := wompi.NewClient(e.cfg.Wompi, e.log)

	cfg := services.ReconcileConfig{
		StaleAfter:  e.cfg.Reconcile.StaleAfter,
		ExpireAfter: e.cfg.Reconcile.ExpireAfter,
		BatchSize:   e.cfg.Reconcile.BatchSize,
		Workers:     e.cfg.Workers,
	}
	if staleAfter > 0 {
		cfg.StaleAfter = staleAfter
	}
	if batch > 0 {
		cfg.BatchSize = batch
	}
	svc := services.NewReconcileService(e.repos.Transactions, gw, hooks, cfg, e.log)
	return svc, func() {
		wp.Stop()
		_ = pub.Close()
	}, nil
}

func reconcileCmd() *cobra.Command {
	var (
		staleAfter time.Duration
		batch      int
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconcile pass over stale PENDING transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			svc, done, err := newReconciler(e, staleAfter, batch)
			if err != nil {
				return err
			}
			defer done()

			res, err := svc.ReconcileOnce(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "override RECONCILE_STALE_AFTER")
	cmd.Flags().IntVar(&batch, "batch", 0, "override RECONCILE_BATCH_SIZE")
	return cmd
}
