package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
)

// PostgresTaskStore implements store.TaskStore on the tasks table.
type PostgresTaskStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewPostgresTaskStore creates a task store on db.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
		now:    time.Now,
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, owner_id, description, completed, created_at, updated_at`

// sortColumns is the only source of identifiers interpolated into ORDER BY.
var sortColumns = map[store.TaskSortField]string{
	store.TaskSortCreatedAt:   "created_at",
	store.TaskSortUpdatedAt:   "updated_at",
	store.TaskSortDescription: "description",
	store.TaskSortCompleted:   "completed",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Description,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.OwnerID,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", task.ID.String()),
			slog.String("owner_id", task.OwnerID.String()))
		return mapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// buildListQuery renders the SELECT for List. Only allow-listed column names
// reach the SQL text; every value is a bind parameter.
func buildListQuery(ownerID uuid.UUID, q store.TaskQuery) (string, []any) {
	var sb strings.Builder
	args := []any{ownerID}

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE owner_id = $1`)

	if q.Completed != nil {
		args = append(args, *q.Completed)
		sb.WriteString(` AND completed = $` + strconv.Itoa(len(args)))
	}

	order := "created_at ASC"
	if q.Sort != nil {
		if col, ok := sortColumns[q.Sort.Field]; ok {
			dir := "ASC"
			if q.Sort.Descending {
				dir = "DESC"
			}
			order = col + " " + dir
		}
	}
	sb.WriteString(` ORDER BY ` + order + `, id ASC`)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(` LIMIT $` + strconv.Itoa(len(args)))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		sb.WriteString(` OFFSET $` + strconv.Itoa(len(args)))
	}

	return sb.String(), args
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(ctx context.Context, ownerID uuid.UUID, q store.TaskQuery) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query, args := buildListQuery(ownerID, q)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", redact.Error(err)),
			slog.String("owner_id", ownerID.String()))
		return nil, mapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	log.Debug("tasks listed",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND owner_id = $2`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id, ownerID))
	return t, s.singleRowErr(ctx, "get", id, err)
}

// Update implements store.TaskStore.Update as a single UPDATE ... RETURNING.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	var description sql.NullString
	if update.Description != nil {
		description = sql.NullString{String: strings.TrimSpace(*update.Description), Valid: true}
	}
	var completed sql.NullBool
	if update.Completed != nil {
		completed = sql.NullBool{Bool: *update.Completed, Valid: true}
	}

	query := `
		UPDATE tasks
		SET description = COALESCE($3, description),
		    completed = COALESCE($4, completed),
		    updated_at = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + taskColumns
	t, err := scanTask(s.db.QueryRowContext(ctx, query,
		id, ownerID, description, completed, s.now().UTC()))
	return t, s.singleRowErr(ctx, "update", id, err)
}

// Delete implements store.TaskStore.Delete as a single DELETE ... RETURNING.
func (s *PostgresTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING ` + taskColumns
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id, ownerID))
	return t, s.singleRowErr(ctx, "delete", id, err)
}

// DeleteByOwner implements store.TaskStore.DeleteByOwner
func (s *PostgresTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return deleteTasksByOwner(ctx, s.db, ownerID)
}

func deleteTasksByOwner(ctx context.Context, db Querier, ownerID uuid.UUID) (int64, error) {
	result, err := db.ExecContext(ctx, `DELETE FROM tasks WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, mapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

func (s *PostgresTaskStore) singleRowErr(ctx context.Context, op string, id uuid.UUID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrTaskNotFound
	}
	logger.FromContextOrDefault(ctx, s.logger).Error("task query failed",
		slog.String("operation", op),
		slog.String("error", redact.Error(err)),
		slog.String("task_id", id.String()))
	return mapError(err)
}
