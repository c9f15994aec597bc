package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{"id", "owner_id", "description", "completed", "created_at", "updated_at"}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestBuildListQuery(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name     string
		query    store.TaskQuery
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "defaults",
			query:    store.TaskQuery{},
			wantSQL:  "WHERE owner_id = $1 ORDER BY created_at ASC, id ASC",
			wantArgs: []any{owner},
		},
		{
			name:     "completed filter",
			query:    store.TaskQuery{Completed: boolPtr(false)},
			wantSQL:  "WHERE owner_id = $1 AND completed = $2 ORDER BY",
			wantArgs: []any{owner, false},
		},
		{
			name: "sort limit and skip",
			query: store.TaskQuery{
				Limit: 10,
				Skip:  20,
				Sort:  &store.TaskSort{Field: store.TaskSortDescription, Descending: true},
			},
			wantSQL:  "ORDER BY description DESC, id ASC LIMIT $2 OFFSET $3",
			wantArgs: []any{owner, 10, 20},
		},
		{
			name:     "unknown sort field keeps default order",
			query:    store.TaskQuery{Sort: &store.TaskSort{Field: "owner; DROP TABLE tasks"}},
			wantSQL:  "ORDER BY created_at ASC, id ASC",
			wantArgs: []any{owner},
		},
		{
			name:     "skip without limit",
			query:    store.TaskQuery{Skip: 5},
			wantSQL:  "id ASC OFFSET $2",
			wantArgs: []any{owner, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListQuery(owner, tt.query)
			assert.Contains(t, sql, tt.wantSQL)
			assert.NotContains(t, sql, "DROP")
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPostgresTaskStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	task, err := domain.NewTask(uuid.New(), "  write tests ", false)
	require.NoError(t, err)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tasks")).
		WithArgs(task.ID, task.OwnerID, "write tests", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	s := NewPostgresTaskStore(db, nil)
	require.NoError(t, s.Create(context.Background(), task))

	invalid := *task
	invalid.Description = "   "
	err = s.Create(context.Background(), &invalid)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.ErrorIs(t, err, domain.ErrTaskDescriptionEmpty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	owner := uuid.New()
	now := time.Now().UTC()

	t.Run("rows are mapped", func(t *testing.T) {
		rows := sqlmock.NewRows(taskRowColumns).
			AddRow(uuid.New().String(), owner.String(), "first", false, now, now).
			AddRow(uuid.New().String(), owner.String(), "second", true, now.Add(time.Second), now)
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks WHERE owner_id = $1")).
			WithArgs(owner).
			WillReturnRows(rows)

		s := NewPostgresTaskStore(db, nil)
		tasks, err := s.List(context.Background(), owner, store.TaskQuery{})
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, "first", tasks[0].Description)
		assert.True(t, tasks[1].Completed)
		assert.Equal(t, owner, tasks[1].OwnerID)
	})

	t.Run("empty result is not nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM tasks")).
			WillReturnRows(sqlmock.NewRows(taskRowColumns))

		s := NewPostgresTaskStore(db, nil)
		tasks, err := s.List(context.Background(), owner, store.TaskQuery{})
		require.NoError(t, err)
		assert.NotNil(t, tasks)
		assert.Empty(t, tasks)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	owner, other, id := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND owner_id = $2")).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(id.String(), owner.String(), "mine", false, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND owner_id = $2")).
		WithArgs(id, other).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND owner_id = $2")).
		WillReturnError(errors.New("connection reset"))

	s := NewPostgresTaskStore(db, nil)

	task, err := s.GetByID(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, "mine", task.Description)

	task, err = s.GetByID(context.Background(), other, id)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.Nil(t, task)

	_, err = s.GetByID(context.Background(), owner, id)
	require.Error(t, err)
	assert.False(t, store.IsNotFoundError(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	owner, id := uuid.New(), uuid.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	s := NewPostgresTaskStore(db, nil)
	s.now = func() time.Time { return updated }

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks")).
		WithArgs(id, owner, "renamed", nil, updated).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(id.String(), owner.String(), "renamed", true, created, updated))

	task, err := s.Update(context.Background(), owner, id, domain.TaskUpdate{Description: strPtr(" renamed ")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", task.Description)
	assert.Equal(t, updated, task.UpdatedAt)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE tasks")).
		WithArgs(id, owner, nil, true, updated).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))

	_, err = s.Update(context.Background(), owner, id, domain.TaskUpdate{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	_, err = s.Update(context.Background(), owner, id, domain.TaskUpdate{Description: strPtr("  ")})
	assert.ErrorIs(t, err, domain.ErrTaskDescriptionEmpty)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaskStore_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	owner, id := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING")).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(id.String(), owner.String(), "gone", false, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING")).
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE owner_id = $1")).
		WithArgs(owner).
		WillReturnResult(sqlmock.NewResult(0, 4))

	s := NewPostgresTaskStore(db, nil)

	task, err := s.Delete(context.Background(), owner, id)
	require.NoError(t, err)
	assert.Equal(t, "gone", task.Description)

	_, err = s.Delete(context.Background(), owner, id)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	n, err := s.DeleteByOwner(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}
