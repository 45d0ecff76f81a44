package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/config"
	"github.com/msomdec/solifound/internal/repository/sqlite"
	"github.com/msomdec/solifound/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQLite schema",
	Long: `Apply the SQLite schema to DATABASE_PATH and exit.

The hosted backend manages its own schema, so this only applies to BACKEND=sqlite.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		if cfg.Backend != config.BackendSQLite {
			return fmt.Errorf("migrate: backend %q has no local schema", cfg.Backend)
		}
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := db.ApplyMigrations(cmd.Context())
		if err != nil {
			slog.Error("migration failed", "path", cfg.DatabasePath, "applied", applied, "error", err)
			return err
		}
		if len(applied) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
		}
		return nil
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user <id>",
	Short: "Delete a user and everything they own",
	Long: `Run the admin delete cascade for one user: education, work experience,
profile and finally the identity.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("admin-email")
		if email == "" {
			admins := cfg.Admins()
			if len(admins) == 0 {
				return errors.New("delete-user: no admin email configured")
			}
			email = admins[0]
		}

		b, err := backend.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer b.Close()

		admin := service.NewAdminService(b, service.NewPolicy(cfg.Admins()))
		if err := admin.DeleteUser(cmd.Context(), service.OperatorPrincipal(email), args[0]); err != nil {
			var cascadeErr *service.CascadeError
			if errors.As(err, &cascadeErr) {
				slog.Error("delete cascade stopped", "user_id", args[0], "error", err)
			}
			return err
		}
		slog.Info("user deleted", "user_id", args[0], "admin", email)
		return nil
	},
}
