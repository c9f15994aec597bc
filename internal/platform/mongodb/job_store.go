package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/job"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type jobDocument struct {
	ID           string    `bson:"_id"`
	Type         string    `bson:"type"`
	Payload      []byte    `bson:"payload"`
	Status       string    `bson:"status"`
	ErrorMessage string    `bson:"errorMessage,omitempty"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func (d jobDocument) toRecord() (job.Record, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return job.Record{}, fmt.Errorf("invalid job id %q: %w", d.ID, err)
	}
	return job.Record{
		ID:           id,
		Type:         d.Type,
		Payload:      d.Payload,
		Status:       job.Status(d.Status),
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}

// JobStore implements job.Store on the jobs collection.
type JobStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
	now    func() time.Time
}

// NewJobStore creates a job store on db.
func NewJobStore(db *mongo.Database, logger *slog.Logger) *JobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStore{
		coll:   db.Collection(JobsCollection),
		logger: logger.With(slog.String("component", "job_store")),
		now:    time.Now,
	}
}

var _ job.Store = (*JobStore)(nil)

// SaveJob persists a new job.
func (s *JobStore) SaveJob(ctx context.Context, j job.Job) error {
	rec := job.NewRecord(j, s.now())
	doc := jobDocument{
		ID:        rec.ID.String(),
		Type:      rec.Type,
		Payload:   rec.Payload,
		Status:    string(rec.Status),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save job",
			slog.String("job_id", rec.ID.String()),
			slog.String("job_type", rec.Type),
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to save job: %w", mapError(err, nil))
	}
	return nil
}

// UpdateJobStatus sets the status and error message of a job.
func (s *JobStore) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status job.Status, errorMsg string) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: string(status)},
		{Key: "errorMessage", Value: errorMsg},
		{Key: "updatedAt", Value: s.now().UTC()},
	}}}
	res, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: jobID.String()}}, update)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update job status",
			slog.String("job_id", jobID.String()),
			slog.String("status", string(status)),
			slog.String("error", redact.Error(err)))
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrJobNotFound
	}
	return nil
}

// GetJob loads a single job record.
func (s *JobStore) GetJob(ctx context.Context, jobID uuid.UUID) (*job.Record, error) {
	var doc jobDocument
	if err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: jobID.String()}}).Decode(&doc); err != nil {
		return nil, mapError(err, store.ErrJobNotFound)
	}
	rec, err := doc.toRecord()
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetPendingJobs returns pending jobs, oldest first.
func (s *JobStore) GetPendingJobs(ctx context.Context) ([]job.Record, error) {
	return s.byStatus(ctx, statusFilter(job.StatusPending, 0, time.Time{}))
}

// GetProcessingJobs returns processing jobs last updated more than olderThan ago.
func (s *JobStore) GetProcessingJobs(ctx context.Context, olderThan time.Duration) ([]job.Record, error) {
	return s.byStatus(ctx, statusFilter(job.StatusProcessing, olderThan, s.now()))
}

func statusFilter(status job.Status, olderThan time.Duration, now time.Time) bson.D {
	filter := bson.D{{Key: "status", Value: string(status)}}
	if olderThan > 0 {
		filter = append(filter, bson.E{
			Key:   "updatedAt",
			Value: bson.D{{Key: "$lt", Value: now.UTC().Add(-olderThan)}},
		})
	}
	return filter
}

func (s *JobStore) byStatus(ctx context.Context, filter bson.D) ([]job.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs by status: %w", err)
	}

	var docs []jobDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}

	records := make([]job.Record, 0, len(docs))
	for _, d := range docs {
		rec, err := d.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
