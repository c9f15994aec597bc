package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/job"
	"github.com/phrazzld/tasks-api/internal/platform/mongodb"
	"github.com/phrazzld/tasks-api/internal/platform/postgres"
	"github.com/phrazzld/tasks-api/internal/store"
)

// storage bundles the stores built on a single database handle together
// with the hooks to check and release that handle.
type storage struct {
	driver string
	users  store.UserStore
	tasks  store.TaskStore
	jobs   job.Store
	ping   func(ctx context.Context) error
	close  func(ctx context.Context) error
}

// setupAppStorage connects to the configured database, prepares its schema
// and returns the stores bound to the connection.
func setupAppStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return setupPostgres(ctx, cfg, logger)
	case config.DriverMongoDB:
		return setupMongo(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func setupPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	db, err := postgres.Open(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}

	if err := postgres.Migrate(ctx, db, postgres.MigrateUp, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &storage{
		driver: config.DriverPostgres,
		users:  postgres.NewPostgresUserStore(db, logger),
		tasks:  postgres.NewPostgresTaskStore(db, logger),
		jobs:   postgres.NewPostgresJobStore(db, logger),
		ping:   db.PingContext,
		close:  func(context.Context) error { return db.Close() },
	}, nil
}

func setupMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storage, error) {
	client, err := mongodb.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.Database.Name)
	if err := mongodb.EnsureIndexes(ctx, db, logger); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return &storage{
		driver: config.DriverMongoDB,
		users:  mongodb.NewUserStore(db, logger),
		tasks:  mongodb.NewTaskStore(db, logger),
		jobs:   mongodb.NewJobStore(db, logger),
		ping:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:  client.Disconnect,
	}, nil
}

// runMigrations applies a schema command without starting the server.
// MongoDB has no versioned schema; "up" ensures its indexes and the other
// commands are reported and skipped.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	switch command {
	case postgres.MigrateUp, postgres.MigrateDown, postgres.MigrateStatus:
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, command, logger)

	case config.DriverMongoDB:
		if command != postgres.MigrateUp {
			logger.Info("migration command has no effect on mongodb", slog.String("command", command))
			return nil
		}
		client, err := mongodb.Connect(ctx, cfg.Database.URL, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		return mongodb.EnsureIndexes(ctx, client.Database(cfg.Database.Name), logger)

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
