// Command hatsuctl runs one-off operator tasks against the HatsuSound
// database: migrations, a reconcile pass, transaction lookups and role
// changes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/JulianaCelis/hatsusound-backend/internal/config"
	"github.com/JulianaCelis/hatsusound-backend/internal/db"
	"github.com/JulianaCelis/hatsusound-backend/internal/logger"
	"github.com/JulianaCelis/hatsusound-backend/internal/repository/postgres"
)

var Version = "dev"

// env is what every subcommand needs once the config has been read.
type env struct {
	cfg   config.Config
	log   *slog.Logger
	pool  *pgxpool.Pool
	repos postgres.Repositories
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hatsuctl",
		Short:         "Operator tools for the HatsuSound payments backend",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (overrides CONFIG_FILE)")

	root.AddCommand(migrateCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(txCmd())
	root.AddCommand(userCmd())
	return root
}

// open loads config and connects to Postgres. The caller closes the pool.
func open(cmd *cobra.Command) (*env, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Env)

	pool, err := db.NewPool(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return &env{cfg: cfg, log: log, pool: pool, repos: postgres.NewRepositories(pool)}, nil
}

func (e *env) Close() { e.pool.Close() }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
