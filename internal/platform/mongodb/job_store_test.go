package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/job"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type stubJob struct{ id uuid.UUID }

func (j stubJob) ID() uuid.UUID                     { return j.id }
func (j stubJob) Type() string                      { return job.TypeCancellationEmail }
func (j stubJob) Payload() []byte                   { return []byte(`{"email":"ada@example.com","name":"Ada"}`) }
func (j stubJob) Status() job.Status                { return job.StatusPending }
func (j stubJob) Execute(ctx context.Context) error { return nil }

func TestStatusFilter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.D{{Key: "status", Value: "pending"}}, statusFilter(job.StatusPending, 0, now))
	assert.Equal(t, bson.D{
		{Key: "status", Value: "processing"},
		{Key: "updatedAt", Value: bson.D{{Key: "$lt", Value: now.Add(-time.Hour)}}},
	}, statusFilter(job.StatusProcessing, time.Hour, now))
}

func TestJobStoreMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		assert.NoError(mt, NewJobStore(mt.DB, nil).SaveJob(context.Background(), stubJob{id: uuid.New()}))
	})

	mt.Run("update status", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		s := NewJobStore(mt.DB, nil)
		assert.NoError(mt, s.UpdateJobStatus(context.Background(), uuid.New(), job.StatusCompleted, ""))
		assert.ErrorIs(mt, s.UpdateJobStatus(context.Background(), uuid.New(), job.StatusFailed, "x"), store.ErrJobNotFound)
	})

	mt.Run("pending jobs", func(mt *mtest.T) {
		id := uuid.New()
		at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.jobs", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id.String()},
			{Key: "type", Value: job.TypeWelcomeEmail},
			{Key: "payload", Value: []byte(`{}`)},
			{Key: "status", Value: "pending"},
			{Key: "createdAt", Value: at},
			{Key: "updatedAt", Value: at},
		}))

		recs, err := NewJobStore(mt.DB, nil).GetPendingJobs(context.Background())
		require.NoError(mt, err)
		require.Len(mt, recs, 1)
		assert.Equal(mt, id, recs[0].ID)
		assert.Equal(mt, job.StatusPending, recs[0].Status)
		assert.Equal(mt, []byte(`{}`), recs[0].Payload)
	})

	mt.Run("missing job", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.jobs", mtest.FirstBatch))

		_, err := NewJobStore(mt.DB, nil).GetJob(context.Background(), uuid.New())
		assert.ErrorIs(mt, err, store.ErrJobNotFound)
	})
}
