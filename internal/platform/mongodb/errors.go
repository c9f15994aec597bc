package mongodb

import (
	"errors"
	"fmt"

	"github.com/phrazzld/tasks-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// mapError translates driver errors into store errors. notFound replaces
// mongo.ErrNoDocuments when non-nil.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		if notFound != nil {
			return notFound
		}
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
