package store

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
)

// TaskSortField names a column tasks can be ordered by.
type TaskSortField string

// Sortable task fields.
const (
	TaskSortCreatedAt   TaskSortField = "createdAt"
	TaskSortUpdatedAt   TaskSortField = "updatedAt"
	TaskSortDescription TaskSortField = "description"
	TaskSortCompleted   TaskSortField = "completed"
)

// ParseTaskSortField resolves a client-supplied field name, accepting the
// snake_case aliases. The second result is false for unknown fields.
func ParseTaskSortField(name string) (TaskSortField, bool) {
	switch strings.TrimSpace(name) {
	case "createdAt", "created_at":
		return TaskSortCreatedAt, true
	case "updatedAt", "updated_at":
		return TaskSortUpdatedAt, true
	case "description":
		return TaskSortDescription, true
	case "completed":
		return TaskSortCompleted, true
	default:
		return "", false
	}
}

// TaskSort orders a task listing.
type TaskSort struct {
	Field      TaskSortField
	Descending bool
}

// TaskQuery filters and pages a task listing. Zero values mean
// "no filter", "no limit" and "no skip". A nil Sort keeps creation order.
type TaskQuery struct {
	Completed *bool
	Limit     int
	Skip      int
	Sort      *TaskSort
}

// TaskStore defines the interface for task persistence.
// Every method that addresses a single task filters by owner, so a task
// belonging to someone else is reported as ErrTaskNotFound.
type TaskStore interface {
	// Create saves a new task.
	// Returns ErrInvalidEntity if the task fails domain validation.
	Create(ctx context.Context, task *domain.Task) error

	// List returns the owner's tasks matching query. It never returns nil on success.
	List(ctx context.Context, ownerID uuid.UUID, query TaskQuery) ([]*domain.Task, error)

	// GetByID retrieves one of the owner's tasks.
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// Update applies update to one of the owner's tasks in a single atomic
	// write and returns the updated task.
	Update(ctx context.Context, ownerID, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes one of the owner's tasks and returns it as it was.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// DeleteByOwner removes every task of the owner and reports how many were removed.
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}
