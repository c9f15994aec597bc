package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a job
type Status string

// Possible job status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job type constants
const (
	TypeWelcomeEmail      = "email.welcome"
	TypeCancellationEmail = "email.cancellation"
)

// Job represents a unit of background work to be processed
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Payload returns the job data as a byte slice
	Payload() []byte

	// Status returns the status the job was created or loaded with
	Status() Status

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Record is the persisted form of a job.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       Status
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewRecord captures the persistent fields of j, stamped with now.
func NewRecord(j Job, now time.Time) Record {
	now = now.UTC()
	return Record{
		ID:        j.ID(),
		Type:      j.Type(),
		Payload:   j.Payload(),
		Status:    j.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Store defines the interface for persisting jobs
type Store interface {
	// SaveJob persists a new job
	SaveJob(ctx context.Context, job Job) error

	// UpdateJobStatus updates the status of a job and stamps UpdatedAt.
	// Returns store.ErrJobNotFound if the job does not exist.
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status Status, errorMsg string) error

	// GetJob loads a single job record
	GetJob(ctx context.Context, jobID uuid.UUID) (*Record, error)

	// GetPendingJobs retrieves all jobs with "pending" status, oldest first
	GetPendingJobs(ctx context.Context) ([]Record, error)

	// GetProcessingJobs retrieves jobs with "processing" status.
	// If olderThan is non-zero, only jobs whose last update is older than
	// that are returned.
	GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]Record, error)
}

// Factory rebuilds executable jobs from persisted records.
type Factory interface {
	Rehydrate(rec Record) (Job, error)
}

// Submitter accepts jobs for background execution.
type Submitter interface {
	Submit(ctx context.Context, job Job) error
}
