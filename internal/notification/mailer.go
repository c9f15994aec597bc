package notification

import (
	"context"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// MailerFunc adapts an ordinary function to Mailer.
type MailerFunc func(ctx context.Context, msg Message) error

// Send calls f(ctx, msg).
func (f MailerFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// LogMailer writes messages to the log instead of delivering them.
// It is used when no email provider is configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a LogMailer. A nil logger falls back to the context logger.
func NewLogMailer(l *slog.Logger) *LogMailer {
	if l != nil {
		l = l.With("component", "log_mailer")
	}
	return &LogMailer{logger: l}
}

// Send logs the message envelope. The body is omitted.
func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	log := m.logger
	if log == nil {
		log = logger.FromContextOrDefault(ctx, nil).With("component", "log_mailer")
	}
	log.InfoContext(ctx, "email delivery disabled, message logged",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject))
	return nil
}

var _ Mailer = (*LogMailer)(nil)
