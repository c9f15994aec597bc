package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type userDocument struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashedPassword"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}

// UserStore implements store.UserStore on the users collection.
type UserStore struct {
	users  *mongo.Collection
	tasks  store.TaskStore
	logger *slog.Logger
}

// NewUserStore creates a user store on db. Deleting a user also removes
// that user's tasks through a TaskStore on the same database.
func NewUserStore(db *mongo.Database, logger *slog.Logger) *UserStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		users:  db.Collection(UsersCollection),
		tasks:  NewTaskStore(db, logger),
		logger: logger.With(slog.String("component", "user_store")),
	}
}

var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user.Email = domain.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if user.HashedPassword == "" {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyHashedPassword)
	}

	doc := userDocument{
		ID:             user.ID.String(),
		Name:           user.Name,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		CreatedAt:      user.CreatedAt.UTC(),
		UpdatedAt:      user.UpdatedAt.UTC(),
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", store.ErrEmailExists, redact.Error(err))
		}
		log.Error("failed to create user",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", user.ID.String()))
		return mapError(err, nil)
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

func (s *UserStore) findOne(ctx context.Context, filter bson.D) (*domain.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		mapped := mapError(err, store.ErrUserNotFound)
		if !errors.Is(mapped, store.ErrUserNotFound) {
			logger.FromContextOrDefault(ctx, s.logger).Error("failed to load user",
				slog.String("error", redact.Error(err)))
		}
		return nil, mapped
	}
	return doc.toDomain()
}

// Delete implements store.UserStore.Delete. Tasks are removed before the
// user document; if that fails the user is left in place.
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	removed, err := s.tasks.DeleteByOwner(ctx, id)
	if err != nil {
		log.Error("failed to delete tasks of user",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", id.String()))
		return fmt.Errorf("failed to delete tasks of user: %w", err)
	}

	res, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		log.Error("failed to delete user",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", id.String()))
		return mapError(err, nil)
	}
	if res.DeletedCount == 0 {
		return store.ErrUserNotFound
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.Int64("tasks_removed", removed))
	return nil
}
