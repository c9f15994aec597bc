package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// TraceIDHeader is read from requests and echoed on every response.
const TraceIDHeader = "X-Trace-ID"

// TraceMiddleware tags the request with a trace ID and a logger that
// carries it. A client-supplied ID is kept when it is well formed.
// It must run before anything that logs or writes an error body.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TraceIDHeader)
		if !shared.ValidTraceID(id) {
			id = shared.NewTraceID()
		}
		w.Header().Set(TraceIDHeader, id)

		reqLog := logger.FromContextOrDefault(r.Context(), nil).With(slog.String("trace_id", id))
		ctx := logger.WithLogger(shared.WithTraceID(r.Context(), id), reqLog)

		reqLog.Debug("request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
