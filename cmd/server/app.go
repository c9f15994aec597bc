package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/events"
	"github.com/phrazzld/tasks-api/internal/job"
	"github.com/phrazzld/tasks-api/internal/notification"
	"github.com/phrazzld/tasks-api/internal/platform/sendgrid"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	storage *storage

	jwtService  auth.JWTService
	userService service.UserService
	taskService service.TaskService

	eventEmitter *events.InMemoryEventEmitter
	jobRunner    *job.Runner
}

// newApplication wires services on top of an already opened storage.
// The job runner is started before it returns; cleanup stops it.
func newApplication(
	cfg *config.Config,
	logger *slog.Logger,
	st *storage,
	mailer notification.Mailer,
) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		storage: st,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.jobRunner = job.NewRunner(st.jobs, job.RunnerConfig{
		WorkerCount: cfg.Jobs.WorkerCount,
		QueueSize:   cfg.Jobs.QueueSize,
		StuckJobAge: time.Duration(cfg.Jobs.StuckJobAgeMinutes) * time.Minute,
	}, logger)

	emailFactory := job.NewEmailJobFactory(mailer, logger)
	emailFactory.Register(app.jobRunner)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(job.NewEmailEventHandler(emailFactory, app.jobRunner, logger),
		events.TypeUserRegistered, events.TypeUserDeleted)

	hasher := auth.NewBcryptVerifier(cfg.Auth.BcryptCost)
	app.userService, err = service.NewUserService(st.users, hasher, hasher, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}

	app.taskService, err = service.NewTaskService(st.tasks, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	if err := app.jobRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	logger.Info("Application initialized successfully", slog.String("driver", st.driver))
	return app, nil
}

// setupMailer picks SendGrid when an API key is configured and falls back
// to logging messages otherwise.
func setupMailer(cfg config.EmailConfig, logger *slog.Logger) (notification.Mailer, error) {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("no SendGrid API key configured, emails will only be logged")
		return notification.NewLogMailer(logger), nil
	}

	mailer, err := sendgrid.NewMailer(sendgrid.Config{
		APIKey:      cfg.SendGridAPIKey,
		FromAddress: cfg.FromAddress,
		FromName:    cfg.FromName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SendGrid mailer: %w", err)
	}
	return mailer, nil
}

// cleanup handles graceful shutdown of application resources.
// In-flight jobs finish before the database handle is released.
func (app *application) cleanup(ctx context.Context) {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.storage != nil && app.storage.close != nil {
		if err := app.storage.close(ctx); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("Application shutdown completed")
}
