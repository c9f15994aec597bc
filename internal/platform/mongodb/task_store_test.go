package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestListFilter(t *testing.T) {
	owner := uuid.New()

	assert.Equal(t, bson.D{{Key: "owner", Value: owner.String()}}, listFilter(owner, store.TaskQuery{}))
	assert.Equal(t,
		bson.D{{Key: "owner", Value: owner.String()}, {Key: "completed", Value: true}},
		listFilter(owner, store.TaskQuery{Completed: boolPtr(true)}))
}

func TestListOptions(t *testing.T) {
	t.Run("default order", func(t *testing.T) {
		opts := listOptions(store.TaskQuery{})
		assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)
		assert.Nil(t, opts.Limit)
		assert.Nil(t, opts.Skip)
	})

	t.Run("descending sort with paging", func(t *testing.T) {
		opts := listOptions(store.TaskQuery{
			Limit: 5,
			Skip:  10,
			Sort:  &store.TaskSort{Field: store.TaskSortUpdatedAt, Descending: true},
		})
		assert.Equal(t, bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}}, opts.Sort)
		require.NotNil(t, opts.Limit)
		require.NotNil(t, opts.Skip)
		assert.Equal(t, int64(5), *opts.Limit)
		assert.Equal(t, int64(10), *opts.Skip)
	})

	t.Run("unknown field", func(t *testing.T) {
		opts := listOptions(store.TaskQuery{Sort: &store.TaskSort{Field: "owner"}})
		assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)
	})
}

func TestUpdateDocument(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	doc := updateDocument(domain.TaskUpdate{Description: strPtr("  tidy  "), Completed: boolPtr(true)}, now)
	assert.Equal(t, bson.D{{Key: "$set", Value: bson.D{
		{Key: "updatedAt", Value: now},
		{Key: "description", Value: "tidy"},
		{Key: "completed", Value: true},
	}}}, doc)

	doc = updateDocument(domain.TaskUpdate{Completed: boolPtr(false)}, now)
	assert.Equal(t, bson.D{{Key: "$set", Value: bson.D{
		{Key: "updatedAt", Value: now},
		{Key: "completed", Value: false},
	}}}, doc)
}

func TestTaskDocumentRoundTrip(t *testing.T) {
	task, err := domain.NewTask(uuid.New(), "water plants", true)
	require.NoError(t, err)

	got, err := newTaskDocument(task).toDomain()
	require.NoError(t, err)
	assert.Equal(t, task, got)

	_, err = taskDocument{ID: "nope", Owner: uuid.NewString()}.toDomain()
	assert.Error(t, err)
}

func taskBSON(id, owner uuid.UUID, description string, completed bool, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "description", Value: description},
		{Key: "completed", Value: completed},
		{Key: "owner", Value: owner.String()},
		{Key: "createdAt", Value: at},
		{Key: "updatedAt", Value: at},
	}
}

func TestTaskStoreMock(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	owner := uuid.New()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		task, err := domain.NewTask(owner, "buy milk", false)
		require.NoError(mt, err)
		assert.NoError(mt, NewTaskStore(mt.DB, nil).Create(context.Background(), task))
	})

	mt.Run("create rejects invalid task", func(mt *mtest.T) {
		err := NewTaskStore(mt.DB, nil).Create(context.Background(), &domain.Task{ID: uuid.New(), OwnerID: owner})
		assert.ErrorIs(mt, err, store.ErrInvalidEntity)
	})

	mt.Run("list", func(mt *mtest.T) {
		first, second := uuid.New(), uuid.New()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.tasks", mtest.FirstBatch,
			taskBSON(first, owner, "first", false, at),
			taskBSON(second, owner, "second", true, at.Add(time.Minute)),
		))

		tasks, err := NewTaskStore(mt.DB, nil).List(context.Background(), owner, store.TaskQuery{})
		require.NoError(mt, err)
		require.Len(mt, tasks, 2)
		assert.Equal(mt, first, tasks[0].ID)
		assert.Equal(mt, "second", tasks[1].Description)
		assert.Equal(mt, at.Add(time.Minute), tasks[1].CreatedAt)
	})

	mt.Run("list empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.tasks", mtest.FirstBatch))

		tasks, err := NewTaskStore(mt.DB, nil).List(context.Background(), owner, store.TaskQuery{})
		require.NoError(mt, err)
		assert.NotNil(mt, tasks)
		assert.Empty(mt, tasks)
	})

	mt.Run("get missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "tasks.tasks", mtest.FirstBatch))

		_, err := NewTaskStore(mt.DB, nil).GetByID(context.Background(), owner, uuid.New())
		assert.ErrorIs(mt, err, store.ErrTaskNotFound)
	})

	mt.Run("update returns the new document", func(mt *mtest.T) {
		id := uuid.New()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: taskBSON(id, owner, "renamed", true, at)},
		})

		task, err := NewTaskStore(mt.DB, nil).Update(context.Background(), owner, id,
			domain.TaskUpdate{Description: strPtr("renamed")})
		require.NoError(mt, err)
		assert.Equal(mt, "renamed", task.Description)
	})

	mt.Run("update rejects blank description before writing", func(mt *mtest.T) {
		_, err := NewTaskStore(mt.DB, nil).Update(context.Background(), owner, uuid.New(),
			domain.TaskUpdate{Description: strPtr(" ")})
		assert.ErrorIs(mt, err, domain.ErrTaskDescriptionEmpty)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "value", Value: nil}})

		_, err := NewTaskStore(mt.DB, nil).Delete(context.Background(), owner, uuid.New())
		assert.ErrorIs(mt, err, store.ErrTaskNotFound)
	})

	mt.Run("delete by owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 3}))

		n, err := NewTaskStore(mt.DB, nil).DeleteByOwner(context.Background(), owner)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), n)
	})
}
