package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/tasks-api/internal/redact"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection = "users"
	TasksCollection = "tasks"
	JobsCollection  = "jobs"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second
)

// Connect opens a client for uri and verifies it against the primary.
func Connect(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetAppName("tasks-api")

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	if logger != nil {
		logger.Info("database connection established",
			slog.String("driver", "mongodb"),
			slog.String("url", redact.String(uri)))
	}
	return client, nil
}

// IndexModels lists the indexes EnsureIndexes creates, keyed by collection.
func IndexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		UsersCollection: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("users_email_unique"),
			},
		},
		TasksCollection: {
			{
				Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: 1}},
				Options: options.Index().SetName("tasks_owner_created_at"),
			},
		},
		JobsCollection: {
			{
				Keys:    bson.D{{Key: "status", Value: 1}, {Key: "updatedAt", Value: 1}},
				Options: options.Index().SetName("jobs_status_updated_at"),
			},
		},
	}
}

// EnsureIndexes creates the indexes every store relies on. Existing
// indexes with the same definition are left alone.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *slog.Logger) error {
	for _, coll := range []string{UsersCollection, TasksCollection, JobsCollection} {
		names, err := db.Collection(coll).Indexes().CreateMany(ctx, IndexModels()[coll])
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
		if logger != nil {
			logger.Debug("indexes ensured",
				slog.String("collection", coll),
				slog.Any("indexes", names))
		}
	}
	return nil
}
