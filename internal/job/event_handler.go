package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/events"
)

// EmailEventHandler turns user lifecycle events into email jobs.
type EmailEventHandler struct {
	factory   *EmailJobFactory
	submitter Submitter
	logger    *slog.Logger
}

// NewEmailEventHandler creates a handler that submits jobs built by factory.
func NewEmailEventHandler(factory *EmailJobFactory, submitter Submitter, logger *slog.Logger) *EmailEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "email_event_handler"),
	}
}

// HandleEvent submits a welcome job for user.registered and a cancellation
// job for user.deleted. Other event types are ignored.
func (h *EmailEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	var build func(email, name string) (*EmailJob, error)
	switch event.Type {
	case events.TypeUserRegistered:
		build = h.factory.NewWelcomeJob
	case events.TypeUserDeleted:
		build = h.factory.NewCancellationJob
	default:
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.UserPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	j, err := build(payload.Email, payload.Name)
	if err != nil {
		h.logger.Error("failed to create job", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to create job: %w", err)
	}

	if err := h.submitter.Submit(ctx, j); err != nil {
		h.logger.Error("failed to submit job",
			"error", err,
			"job_id", j.ID(),
			"event_id", event.ID)
		return fmt.Errorf("failed to submit job: %w", err)
	}

	h.logger.Info("job created and submitted",
		"job_id", j.ID(),
		"job_type", j.Type(),
		"user_id", payload.UserID,
		"event_id", event.ID)
	return nil
}

// Ensure EmailEventHandler implements events.EventHandler
var _ events.EventHandler = (*EmailEventHandler)(nil)
