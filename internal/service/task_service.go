package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
)

// TaskService manages tasks on behalf of their owner. Every operation takes
// the authenticated owner's ID; a task owned by someone else is reported as
// store.ErrTaskNotFound.
type TaskService interface {
	// CreateTask validates and saves a new task for ownerID.
	// Returns a domain.ValidationError when the description is empty.
	CreateTask(ctx context.Context, ownerID uuid.UUID, description string, completed bool) (*domain.Task, error)

	// ListTasks returns the owner's tasks matching query.
	ListTasks(ctx context.Context, ownerID uuid.UUID, query store.TaskQuery) ([]*domain.Task, error)

	// GetTask retrieves one of the owner's tasks.
	GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)

	// UpdateTask applies a partial update and returns the result.
	UpdateTask(ctx context.Context, ownerID, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// DeleteTask removes one of the owner's tasks and returns it.
	DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error)
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskStore store.TaskStore
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns validation errors if any of the dependencies are nil.
func NewTaskService(taskStore store.TaskStore, logger *slog.Logger) (TaskService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore: taskStore,
		logger:    logger.With(slog.String("component", "task_service")),
	}, nil
}

// CreateTask implements TaskService.CreateTask
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	ownerID uuid.UUID,
	description string,
	completed bool,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(ownerID, description, completed)
	if err != nil {
		log.Debug("rejected invalid task",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		log.Error("failed to save task",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", redact.Error(err)))
		return nil, NewServiceError("task", "create", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	ownerID uuid.UUID,
	query store.TaskQuery,
) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tasks, err := s.taskStore.List(ctx, ownerID, query)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("owner_id", ownerID.String()),
			slog.String("error", redact.Error(err)))
		return nil, NewServiceError("task", "list", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks",
		slog.String("owner_id", ownerID.String()),
		slog.Int("count", len(tasks)))
	return tasks, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, ownerID, taskID)
	if err != nil {
		s.logStoreError(ctx, "get", ownerID, taskID, err)
		return nil, NewServiceError("task", "get", err)
	}
	return task, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	ownerID, taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	task, err := s.taskStore.Update(ctx, ownerID, taskID, update)
	if err != nil {
		s.logStoreError(ctx, "update", ownerID, taskID, err)
		return nil, NewServiceError("task", "update", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.Bool("fields_changed", !update.IsEmpty()))
	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
func (s *taskServiceImpl) DeleteTask(ctx context.Context, ownerID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.Delete(ctx, ownerID, taskID)
	if err != nil {
		s.logStoreError(ctx, "delete", ownerID, taskID, err)
		return nil, NewServiceError("task", "delete", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()))
	return task, nil
}

// logStoreError logs misses at debug level and everything else as an error.
func (s *taskServiceImpl) logStoreError(ctx context.Context, op string, ownerID, taskID uuid.UUID, err error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	attrs := []any{
		slog.String("operation", op),
		slog.String("task_id", taskID.String()),
		slog.String("owner_id", ownerID.String()),
	}
	if store.IsNotFoundError(err) {
		log.Debug("task not found", attrs...)
		return
	}
	log.Error("task store operation failed", append(attrs, slog.String("error", redact.Error(err)))...)
}
