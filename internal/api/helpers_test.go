package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/api/middleware"
	"github.com/phrazzld/tasks-api/internal/domain"
	"github.com/phrazzld/tasks-api/internal/mocks"
	"github.com/phrazzld/tasks-api/internal/service"
	"github.com/phrazzld/tasks-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const refreshPrefix = "refresh:"

// testEnv wires the handlers to in-memory stores behind a chi router.
// Access tokens are the user ID itself; refresh tokens carry refreshPrefix.
type testEnv struct {
	router  http.Handler
	users   *mocks.MockUserStore
	tasks   *mocks.MockTaskStore
	emitter *mocks.MockEventEmitter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		users:   mocks.NewMockUserStore(),
		tasks:   mocks.NewMockTaskStore(),
		emitter: &mocks.MockEventEmitter{},
	}

	jwtService := &mocks.MockJWTService{
		GenerateTokenFn: func(_ context.Context, userID uuid.UUID) (string, error) {
			return userID.String(), nil
		},
		GenerateRefreshTokenFn: func(_ context.Context, userID uuid.UUID) (string, error) {
			return refreshPrefix + userID.String(), nil
		},
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			id, err := uuid.Parse(token)
			if err != nil {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: id, TokenType: "access"}, nil
		},
		ValidateRefreshTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			if !strings.HasPrefix(token, refreshPrefix) {
				return nil, auth.ErrWrongTokenType
			}
			id, err := uuid.Parse(strings.TrimPrefix(token, refreshPrefix))
			if err != nil {
				return nil, auth.ErrInvalidRefreshToken
			}
			return &auth.Claims{UserID: id, TokenType: "refresh"}, nil
		},
	}

	verifier := &mocks.MockPasswordVerifier{CompareFn: mocks.MatchHashed}
	userService, err := service.NewUserService(env.users, verifier, verifier, env.emitter, log)
	require.NoError(t, err)
	taskService, err := service.NewTaskService(env.tasks, log)
	require.NoError(t, err)

	authHandler := NewAuthHandler(userService, jwtService, log)
	userHandler := NewUserHandler(userService, log)
	taskHandler := NewTaskHandler(taskService, log)
	authMiddleware := middleware.NewAuthMiddleware(jwtService, env.users)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.RefreshToken)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Get("/users/me", userHandler.GetMe)
		r.Delete("/users/me", userHandler.DeleteMe)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Patch("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	})
	env.router = r

	return env
}

// addUser stores a user directly with the password "hashed:" + password.
func (e *testEnv) addUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	now := time.Now().UTC()
	user := &domain.User{
		ID:             uuid.New(),
		Name:           "User " + email,
		Email:          email,
		HashedPassword: "hashed:" + password,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

// addTask stores a task directly, bypassing the handlers.
func (e *testEnv) addTask(ownerID uuid.UUID, description string, completed bool, createdAt time.Time) *domain.Task {
	task := &domain.Task{
		ID:          uuid.New(),
		Description: description,
		Completed:   completed,
		OwnerID:     ownerID,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   createdAt.UTC(),
	}
	e.tasks.Put(task)
	return task
}

// do performs a request as user; a nil user sends no Authorization header.
func (e *testEnv) do(t *testing.T, method, path string, user *domain.User, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+user.ID.String())
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}
