package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/job"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
)

// PostgresJobStore implements the job.Store interface using PostgreSQL
type PostgresJobStore struct {
	db     Querier
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresJobStore creates a new PostgresJobStore
func NewPostgresJobStore(db Querier, logger *slog.Logger) *PostgresJobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
		now:    time.Now,
	}
}

var _ job.Store = (*PostgresJobStore)(nil)

const jobColumns = `id, type, payload, status, error_message, created_at, updated_at`

// SaveJob persists a job to the database
func (s *PostgresJobStore) SaveJob(ctx context.Context, j job.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rec := job.NewRecord(j, s.now())
	payload := rec.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query := `
		INSERT INTO jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Type,
		payload,
		string(rec.Status),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save job",
			slog.String("job_id", rec.ID.String()),
			slog.String("job_type", rec.Type),
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to save job to database: %w", mapError(err))
	}

	return nil
}

// UpdateJobStatus updates the status of a job in the database
func (s *PostgresJobStore) UpdateJobStatus(
	ctx context.Context,
	jobID uuid.UUID,
	status job.Status,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, string(status), errorMsg, s.now().UTC(), jobID)
	if err != nil {
		log.Error("failed to update job status",
			slog.String("job_id", jobID.String()),
			slog.String("status", string(status)),
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to update job status: %w", mapError(err))
	}

	return requireRows(result, store.ErrJobNotFound)
}

// GetJob loads a single job record.
func (s *PostgresJobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*job.Record, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	rec, err := scanJob(s.db.QueryRowContext(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to load job: %w", mapError(err))
	}
	return rec, nil
}

// GetPendingJobs retrieves all jobs with "pending" status
func (s *PostgresJobStore) GetPendingJobs(ctx context.Context) ([]job.Record, error) {
	return s.getJobsByStatus(ctx, job.StatusPending, 0)
}

// GetProcessingJobs retrieves jobs with "processing" status
func (s *PostgresJobStore) GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]job.Record, error) {
	return s.getJobsByStatus(ctx, job.StatusProcessing, olderThan)
}

// getJobsByStatus is a helper method to get jobs by status with optional age filter
func (s *PostgresJobStore) getJobsByStatus(
	ctx context.Context,
	status job.Status,
	olderThan time.Duration,
) ([]job.Record, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = $1`
	args := []any{string(status)}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, s.now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query jobs by status",
			slog.String("status", string(status)),
			slog.String("error", redact.Error(err)))
		return nil, fmt.Errorf("failed to query jobs by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []job.Record
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return records, nil
}

func scanJob(row rowScanner) (*job.Record, error) {
	var (
		rec          job.Record
		status       string
		errorMessage sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Type,
		&rec.Payload,
		&status,
		&errorMessage,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = job.Status(status)
	rec.ErrorMessage = errorMessage.String
	return &rec, nil
}
