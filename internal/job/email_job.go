package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/notification"
)

// ErrInvalidPayload is returned when a job payload cannot be decoded or is incomplete.
var ErrInvalidPayload = errors.New("invalid job payload")

// EmailPayload is the persisted payload of email jobs.
type EmailPayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EmailJob sends one templated notification email.
type EmailJob struct {
	id      uuid.UUID
	jobType string
	payload []byte
	data    EmailPayload
	status  Status
	mailer  notification.Mailer
	logger  *slog.Logger
}

// ID returns the job's unique identifier
func (j *EmailJob) ID() uuid.UUID { return j.id }

// Type returns the job type identifier
func (j *EmailJob) Type() string { return j.jobType }

// Payload returns the JSON-encoded EmailPayload
func (j *EmailJob) Payload() []byte { return j.payload }

// Status returns the status the job was created or loaded with
func (j *EmailJob) Status() Status { return j.status }

// Message renders the email the job will send.
func (j *EmailJob) Message() (notification.Message, error) {
	switch j.jobType {
	case TypeWelcomeEmail:
		return notification.WelcomeMessage(j.data.Email, j.data.Name), nil
	case TypeCancellationEmail:
		return notification.CancellationMessage(j.data.Email, j.data.Name), nil
	default:
		return notification.Message{}, fmt.Errorf("%w: %s", ErrUnknownJobType, j.jobType)
	}
}

// Execute sends the email through the configured mailer.
func (j *EmailJob) Execute(ctx context.Context) error {
	msg, err := j.Message()
	if err != nil {
		return err
	}

	if err := j.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", j.jobType, err)
	}

	j.logger.DebugContext(ctx, "email sent", "job_id", j.id, "job_type", j.jobType)
	return nil
}

// EmailJobFactory creates and rehydrates EmailJob instances.
type EmailJobFactory struct {
	mailer notification.Mailer
	logger *slog.Logger
}

// NewEmailJobFactory creates a factory whose jobs deliver through mailer.
func NewEmailJobFactory(mailer notification.Mailer, logger *slog.Logger) *EmailJobFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailJobFactory{
		mailer: mailer,
		logger: logger.With("component", "email_job"),
	}
}

// NewWelcomeJob creates a pending welcome email job.
func (f *EmailJobFactory) NewWelcomeJob(email, name string) (*EmailJob, error) {
	return f.newJob(TypeWelcomeEmail, EmailPayload{Email: email, Name: name})
}

// NewCancellationJob creates a pending cancellation email job.
func (f *EmailJobFactory) NewCancellationJob(email, name string) (*EmailJob, error) {
	return f.newJob(TypeCancellationEmail, EmailPayload{Email: email, Name: name})
}

func (f *EmailJobFactory) newJob(jobType string, data EmailPayload) (*EmailJob, error) {
	if strings.TrimSpace(data.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidPayload)
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode email payload: %w", err)
	}

	return &EmailJob{
		id:      uuid.New(),
		jobType: jobType,
		payload: raw,
		data:    data,
		status:  StatusPending,
		mailer:  f.mailer,
		logger:  f.logger,
	}, nil
}

// Rehydrate rebuilds an EmailJob from its persisted record.
func (f *EmailJobFactory) Rehydrate(rec Record) (Job, error) {
	if rec.Type != TypeWelcomeEmail && rec.Type != TypeCancellationEmail {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobType, rec.Type)
	}

	var data EmailPayload
	if err := json.Unmarshal(rec.Payload, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(data.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidPayload)
	}

	return &EmailJob{
		id:      rec.ID,
		jobType: rec.Type,
		payload: rec.Payload,
		data:    data,
		status:  rec.Status,
		mailer:  f.mailer,
		logger:  f.logger,
	}, nil
}

// Register makes the factory responsible for both email job types on r.
func (f *EmailJobFactory) Register(r *Runner) {
	r.RegisterFactory(TypeWelcomeEmail, f)
	r.RegisterFactory(TypeCancellationEmail, f)
}

var (
	_ Job     = (*EmailJob)(nil)
	_ Factory = (*EmailJobFactory)(nil)
)
