package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JulianaCelis/hatsusound-backend/internal/models"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Inspect and resync transactions",
	}
	cmd.AddCommand(txGetCmd(), txSyncCmd())
	return cmd
}

func txGetCmd() *cobra.Command {
	var byReference, history bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a transaction by id, or by reference with --reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			svc := services.NewTransactionService(e.repos.Transactions, e.repos.AuditLogs, e.log)
			var tx models.Transaction
			if byReference {
				tx, err = svc.GetByReference(cmd.Context(), args[0])
			} else {
				tx, err = svc.Get(cmd.Context(), args[0])
			}
			if err != nil {
				return fmt.Errorf("lookup %s: %w", args[0], err)
			}
			if !history {
				return printJSON(cmd.OutOrStdout(), tx)
			}
			entries, err := svc.History(cmd.Context(), tx.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"transaction": tx, "history": entries})
		},
	}
	cmd.Flags().BoolVar(&byReference, "reference", false, "treat the argument as a merchant reference")
	cmd.Flags().BoolVar(&history, "history", false, "include the settlement audit trail")
	return cmd
}

func txSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync <id>",
		Short: "Pull the current status of one transaction from Wompi",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			svc, done, err := newReconciler(e, 0, 0)
			if err != nil {
				return err
			}
			defer done()

			tx, err := svc.SyncTransaction(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tx)
		},
	}
}
