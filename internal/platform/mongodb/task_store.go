package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskDocument is the stored shape of a task.
type taskDocument struct {
	ID          string    `bson:"_id"`
	Description string    `bson:"description"`
	Completed   bool      `bson:"completed"`
	Owner       string    `bson:"owner"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func newTaskDocument(t *domain.Task) taskDocument {
	return taskDocument{
		ID:          t.ID.String(),
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.OwnerID.String(),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.Owner)
	if err != nil {
		return nil, fmt.Errorf("invalid task owner %q: %w", d.Owner, err)
	}
	return &domain.Task{
		ID:          id,
		Description: d.Description,
		Completed:   d.Completed,
		OwnerID:     owner,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}

// sortKeys maps sortable fields to document keys.
var sortKeys = map[store.TaskSortField]string{
	store.TaskSortCreatedAt:   "createdAt",
	store.TaskSortUpdatedAt:   "updatedAt",
	store.TaskSortDescription: "description",
	store.TaskSortCompleted:   "completed",
}

// TaskStore implements store.TaskStore on the tasks collection.
type TaskStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskStore creates a task store on db.
func NewTaskStore(db *mongo.Database, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		coll:   db.Collection(TasksCollection),
		logger: logger.With(slog.String("component", "task_store")),
		now:    time.Now,
	}
}

var _ store.TaskStore = (*TaskStore)(nil)

func ownedBy(ownerID, id uuid.UUID) bson.D {
	return bson.D{{Key: "_id", Value: id.String()}, {Key: "owner", Value: ownerID.String()}}
}

// listFilter builds the filter for List.
func listFilter(ownerID uuid.UUID, q store.TaskQuery) bson.D {
	filter := bson.D{{Key: "owner", Value: ownerID.String()}}
	if q.Completed != nil {
		filter = append(filter, bson.E{Key: "completed", Value: *q.Completed})
	}
	return filter
}

// listOptions builds sort and paging for List. Creation order is the default;
// _id breaks ties so pages are stable.
func listOptions(q store.TaskQuery) *options.FindOptions {
	sort := bson.D{{Key: "createdAt", Value: 1}}
	if q.Sort != nil {
		if key, ok := sortKeys[q.Sort.Field]; ok {
			dir := 1
			if q.Sort.Descending {
				dir = -1
			}
			sort = bson.D{{Key: key, Value: dir}}
		}
	}
	sort = append(sort, bson.E{Key: "_id", Value: 1})

	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	return opts
}

// updateDocument builds the $set for a partial update.
func updateDocument(update domain.TaskUpdate, now time.Time) bson.D {
	set := bson.D{{Key: "updatedAt", Value: now.UTC()}}
	if update.Description != nil {
		set = append(set, bson.E{Key: "description", Value: strings.TrimSpace(*update.Description)})
	}
	if update.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *update.Completed})
	}
	return bson.D{{Key: "$set", Value: set}}
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	if _, err := s.coll.InsertOne(ctx, newTaskDocument(task)); err != nil {
		log.Error("failed to create task",
			slog.String("error", redact.Error(err)),
			slog.String("task_id", task.ID.String()))
		return mapError(err, nil)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", task.OwnerID.String()))
	return nil
}

// List implements store.TaskStore.List
func (s *TaskStore) List(ctx context.Context, ownerID uuid.UUID, q store.TaskQuery) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cursor, err := s.coll.Find(ctx, listFilter(ownerID, q), listOptions(q))
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", redact.Error(err)),
			slog.String("owner_id", ownerID.String()))
		return nil, mapError(err, nil)
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, d := range docs {
		t, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// GetByID implements store.TaskStore.GetByID
func (s *TaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	err := s.coll.FindOne(ctx, ownedBy(ownerID, id)).Decode(&doc)
	return s.single(ctx, "get", id, doc, err)
}

// Update implements store.TaskStore.Update with a single find-and-modify.
func (s *TaskStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err := s.coll.FindOneAndUpdate(ctx, ownedBy(ownerID, id), updateDocument(update, s.now()), opts).Decode(&doc)
	return s.single(ctx, "update", id, doc, err)
}

// Delete implements store.TaskStore.Delete with a single find-and-remove.
func (s *TaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	err := s.coll.FindOneAndDelete(ctx, ownedBy(ownerID, id)).Decode(&doc)
	return s.single(ctx, "delete", id, doc, err)
}

// DeleteByOwner implements store.TaskStore.DeleteByOwner
func (s *TaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "owner", Value: ownerID.String()}})
	if err != nil {
		return 0, mapError(err, nil)
	}
	return res.DeletedCount, nil
}

func (s *TaskStore) single(
	ctx context.Context,
	op string,
	id uuid.UUID,
	doc taskDocument,
	err error,
) (*domain.Task, error) {
	if err != nil {
		mapped := mapError(err, store.ErrTaskNotFound)
		if !store.IsNotFoundError(mapped) {
			logger.FromContextOrDefault(ctx, s.logger).Error("task query failed",
				slog.String("operation", op),
				slog.String("error", redact.Error(err)),
				slog.String("task_id", id.String()))
		}
		return nil, mapped
	}
	return doc.toDomain()
}
