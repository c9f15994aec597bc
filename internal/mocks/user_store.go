package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// MockUserStore is an in-memory store.UserStore with the same email
// uniqueness and cascade rules as the real stores.
type MockUserStore struct {
	// Tasks, when set, loses the user's tasks on Delete.
	Tasks store.TaskStore

	// LastUserID is the ID of the most recently created user.
	LastUserID uuid.UUID

	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
}

var _ store.UserStore = (*MockUserStore)(nil)

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MockUserStore) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	email := domain.NormalizeEmail(user.Email)
	if _, taken := m.byEmail[email]; taken {
		return store.ErrEmailExists
	}
	m.byID[user.ID] = user
	m.byEmail[email] = user.ID
	m.LastUserID = user.ID
	return nil
}

func (m *MockUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return m.byID[id], nil
}

func (m *MockUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	user, ok := m.byID[id]
	if ok {
		delete(m.byID, id)
		delete(m.byEmail, domain.NormalizeEmail(user.Email))
	}
	m.mu.Unlock()

	if !ok {
		return store.ErrUserNotFound
	}
	if m.Tasks == nil {
		return nil
	}
	_, err := m.Tasks.DeleteByOwner(ctx, id)
	return err
}
