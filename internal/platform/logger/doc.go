// Package logger configures the process-wide JSON slog logger and carries
// request-scoped loggers, tagged with the trace ID, through context.
package logger
