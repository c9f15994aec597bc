package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/store"
)

// userIDFrom returns the user placed in the context by the auth middleware.
func userIDFrom(r *http.Request) (uuid.UUID, bool) {
	id, _ := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	return id, id != uuid.Nil
}

// pathID parses the named chi URL parameter. Anything that is not a UUID
// wraps domain.ErrInvalidID.
func pathID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(param, "is required", domain.ErrInvalidID)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(param, "has invalid format", domain.ErrInvalidID)
	}
	return id, nil
}

// requireUserID answers 401 when the request has no authenticated user.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	id, ok := userIDFrom(r)
	if !ok {
		log.Warn("request reached a protected handler without a user")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
	}
	return id, ok
}

// requireOwnedTaskID resolves the caller and the {id} path parameter for
// the single-task routes, answering 401 or 404 itself on failure.
func requireOwnedTaskID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (owner, task uuid.UUID, ok bool) {
	if owner, ok = requireUserID(w, r, log); !ok {
		return uuid.Nil, uuid.Nil, false
	}
	task, err := pathID(r, "id")
	if err != nil {
		log.Debug("malformed task id", slog.String("value", chi.URLParam(r, "id")))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return owner, task, true
}

// parseTaskQuery reads the listing parameters. Malformed values are dropped
// rather than rejected.
//
//   - completed: filters by value == "true" when non-empty
//   - limit, skip: non-negative integers
//   - sortBy: field:direction, direction "asc" ascends and anything else descends
func parseTaskQuery(r *http.Request) store.TaskQuery {
	values := r.URL.Query()
	var query store.TaskQuery

	if completed := values.Get("completed"); completed != "" {
		want := completed == "true"
		query.Completed = &want
	}

	query.Limit = parseNonNegative(values.Get("limit"))
	query.Skip = parseNonNegative(values.Get("skip"))

	if sortBy := values.Get("sortBy"); sortBy != "" {
		name, direction, _ := strings.Cut(sortBy, ":")
		if field, ok := store.ParseTaskSortField(name); ok {
			query.Sort = &store.TaskSort{Field: field, Descending: direction != "asc"}
		}
	}

	return query
}

func parseNonNegative(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
