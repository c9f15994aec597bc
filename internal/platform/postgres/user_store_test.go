package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) *domain.User {
	t.Helper()
	user, err := domain.NewUser("Ada", "Ada@Example.com", "correct-horse-battery")
	require.NoError(t, err)
	user.HashedPassword = "$2a$10$hash"
	return user
}

func TestPostgresUserStore_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		user := newTestUser(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(user.ID, "Ada", "ada@example.com", user.HashedPassword, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		s := NewPostgresUserStore(db, nil)
		require.NoError(t, s.Create(context.Background(), user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WillReturnError(&pgconn.PgError{Code: codeUnique, ConstraintName: "users_email_key"})

		s := NewPostgresUserStore(db, nil)
		err = s.Create(context.Background(), newTestUser(t))
		assert.ErrorIs(t, err, store.ErrEmailExists)
		assert.True(t, store.IsDuplicateError(err))
	})

	t.Run("missing hash never reaches the database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		user := newTestUser(t)
		user.HashedPassword = ""

		s := NewPostgresUserStore(db, nil)
		assert.ErrorIs(t, s.Create(context.Background(), user), store.ErrInvalidEntity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresUserStore_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	id := uuid.New()
	now := time.Now().UTC()
	columns := []string{"id", "name", "email", "hashed_password", "created_at", "updated_at"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id.String(), "Ada", "ada@example.com", "hash", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(columns))

	s := NewPostgresUserStore(db, nil)

	user, err := s.GetByEmail(context.Background(), "  ADA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "hash", user.HashedPassword)

	_, err = s.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUserStore_Delete(t *testing.T) {
	t.Run("removes tasks and user in one transaction", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks WHERE owner_id = $1")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users WHERE id = $1")).
			WithArgs(id).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		s := NewPostgresUserStore(db, nil)
		require.NoError(t, s.Delete(context.Background(), id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user rolls back", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer func() { _ = db.Close() }()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM users")).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		s := NewPostgresUserStore(db, nil)
		assert.ErrorIs(t, s.Delete(context.Background(), uuid.New()), store.ErrUserNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
