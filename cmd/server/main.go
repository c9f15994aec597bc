// Package main implements the entry point for the tasks API server, which
// manages users and their tasks over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}

// newRootCommand builds the command tree. Running the binary without a
// subcommand serves the API.
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "tasks-api",
		Short:         "Task management REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	})

	root.AddCommand(&cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Apply database schema changes",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initializeApp(".env")
			if err != nil {
				return err
			}
			return runMigrations(cmd.Context(), cfg, args[0], log)
		},
	})

	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := initializeApp(".env")
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := setupAppStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to set up storage: %w", err)
	}

	mailer, err := setupMailer(cfg.Email, log)
	if err != nil {
		_ = st.close(context.Background())
		return err
	}

	app, err := newApplication(cfg, log, st, mailer)
	if err != nil {
		_ = st.close(context.Background())
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

// initializeApp loads the optional dotenv file, the configuration and
// sets up structured logging using the configured level.
func initializeApp(envFile string) (*config.Config, *slog.Logger, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))
	l.Debug("Email configuration", slog.Bool("sendgrid_key_present", cfg.Email.SendGridAPIKey != ""))

	return cfg, l, nil
}

// loadEnvFile exports the variables in path unless they are already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
