package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/msomdec/solifound/internal/config"
	"github.com/msomdec/solifound/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "solifound",
	Short: "Solifound candidate profile and admin portal",
	Long: `Solifound serves the candidate profile portal and its admin panel.

Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, deleteUserCmd)
	deleteUserCmd.Flags().String("admin-email", "", "admin email to act as (defaults to the first ADMIN_EMAILS entry)")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the default logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logging.New(os.Stdout, os.Stderr, cfg.SlogLevel()))
	return cfg, nil
}
