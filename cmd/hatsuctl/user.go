package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JulianaCelis/hatsusound-backend/internal/auth"
	"github.com/JulianaCelis/hatsusound-backend/internal/services"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change an account's role (user or admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tm := auth.NewTokenManager(e.cfg.JWTIssuer, e.cfg.JWTAccessSecret, e.cfg.JWTRefreshSecret, e.cfg.AccessTTL, e.cfg.RefreshTTL)
			u, err := services.NewUserService(e.repos.Users, tm).SetRole(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
			return nil
		},
	})
	return cmd
}
