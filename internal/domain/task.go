package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task-specific validation errors
var (
	// ErrTaskIDEmpty is returned when a task ID is empty or nil.
	ErrTaskIDEmpty = errors.New("task ID cannot be empty")

	// ErrTaskOwnerEmpty is returned when a task has no owner.
	ErrTaskOwnerEmpty = errors.New("task owner cannot be empty")

	// ErrTaskDescriptionEmpty is returned when a description is blank after trimming.
	ErrTaskDescriptionEmpty = errors.New("task description cannot be empty")
)

// Task is a single to-do item belonging to exactly one user.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	OwnerID     uuid.UUID `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewTask creates a task owned by ownerID. The description is trimmed.
// Returns an error if validation fails.
func NewTask(ownerID uuid.UUID, description string, completed bool) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Description: strings.TrimSpace(description),
		Completed:   completed,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrTaskIDEmpty)
	}

	if t.OwnerID == uuid.Nil {
		return NewValidationError("owner", "cannot be empty", ErrTaskOwnerEmpty)
	}

	if strings.TrimSpace(t.Description) == "" {
		return NewValidationError("description", "cannot be empty", ErrTaskDescriptionEmpty)
	}

	return nil
}

// TaskUpdate carries the mutable task fields. Nil fields are left unchanged.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Description == nil && u.Completed == nil
}

// Validate checks the fields that are set.
func (u TaskUpdate) Validate() error {
	if u.Description != nil && strings.TrimSpace(*u.Description) == "" {
		return NewValidationError("description", "cannot be empty", ErrTaskDescriptionEmpty)
	}
	return nil
}

// Apply copies the set fields onto t and bumps UpdatedAt to now.
func (u TaskUpdate) Apply(t *Task, now time.Time) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.Description != nil {
		t.Description = strings.TrimSpace(*u.Description)
	}
	if u.Completed != nil {
		t.Completed = *u.Completed
	}
	t.UpdatedAt = now.UTC()
	return nil
}
