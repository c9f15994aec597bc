package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// MockTaskStore is an in-memory store.TaskStore for testing.
// Results are copies, so callers cannot mutate stored tasks.
type MockTaskStore struct {
	// Function fields override the in-memory behavior when set
	CreateFn  func(ctx context.Context, task *domain.Task) error
	ListFn    func(ctx context.Context, ownerID uuid.UUID, query store.TaskQuery) ([]*domain.Task, error)
	GetByIDFn func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)
	UpdateFn  func(ctx context.Context, ownerID, id uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
	DeleteFn  func(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error)

	// Calls counts invocations per method name
	Calls map[string]int

	// Now supplies update timestamps; defaults to time.Now
	Now func() time.Time

	tasks map[uuid.UUID]*domain.Task
	mu    sync.Mutex
}

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		Calls: make(map[string]int),
		tasks: make(map[uuid.UUID]*domain.Task),
	}
}

// TotalCalls reports how many store methods were invoked.
func (m *MockTaskStore) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.Calls {
		total += n
	}
	return total
}

// Put stores task directly, bypassing validation and call counting.
func (m *MockTaskStore) Put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = copyTask(task)
}

// Stored returns the current stored copy of a task regardless of owner.
func (m *MockTaskStore) Stored(id uuid.UUID) (*domain.Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, false
	}
	return copyTask(task), true
}

func (m *MockTaskStore) record(method string) {
	m.mu.Lock()
	m.Calls[method]++
	m.mu.Unlock()
}

// Create implements store.TaskStore
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	if err := task.Validate(); err != nil {
		return store.ErrInvalidEntity
	}
	m.Put(task)
	return nil
}

// List implements store.TaskStore
func (m *MockTaskStore) List(ctx context.Context, ownerID uuid.UUID, query store.TaskQuery) ([]*domain.Task, error) {
	m.record("List")
	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID, query)
	}

	m.mu.Lock()
	result := make([]*domain.Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		if task.OwnerID != ownerID {
			continue
		}
		if query.Completed != nil && task.Completed != *query.Completed {
			continue
		}
		result = append(result, copyTask(task))
	}
	m.mu.Unlock()

	sortTasks(result, query.Sort)

	if query.Skip > 0 {
		if query.Skip >= len(result) {
			return []*domain.Task{}, nil
		}
		result = result[query.Skip:]
	}
	if query.Limit > 0 && query.Limit < len(result) {
		result = result[:query.Limit]
	}
	return result, nil
}

// GetByID implements store.TaskStore
func (m *MockTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	m.record("GetByID")
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, ownerID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(task), nil
}

// Update implements store.TaskStore
func (m *MockTaskStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, ownerID, id, update)
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	updated := copyTask(task)
	if err := update.Apply(updated, now()); err != nil {
		return nil, store.ErrInvalidEntity
	}
	m.tasks[id] = updated
	return copyTask(updated), nil
}

// Delete implements store.TaskStore
func (m *MockTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, ownerID, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return task, nil
}

// DeleteByOwner implements store.TaskStore
func (m *MockTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	m.record("DeleteByOwner")

	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for id, task := range m.tasks {
		if task.OwnerID == ownerID {
			delete(m.tasks, id)
			removed++
		}
	}
	return removed, nil
}

// sortTasks orders tasks the way the real stores do: by the requested
// field, then by creation time and ID.
func sortTasks(tasks []*domain.Task, order *store.TaskSort) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if order != nil {
			if c := compareField(a, b, order.Field); c != 0 {
				if order.Descending {
					return c > 0
				}
				return c < 0
			}
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func compareField(a, b *domain.Task, field store.TaskSortField) int {
	switch field {
	case store.TaskSortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case store.TaskSortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case store.TaskSortDescription:
		switch {
		case a.Description < b.Description:
			return -1
		case a.Description > b.Description:
			return 1
		}
	case store.TaskSortCompleted:
		switch {
		case a.Completed == b.Completed:
			return 0
		case !a.Completed:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func copyTask(task *domain.Task) *domain.Task {
	c := *task
	return &c
}

var _ store.TaskStore = (*MockTaskStore)(nil)
