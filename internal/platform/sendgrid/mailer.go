// Package sendgrid delivers notification messages through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/notification"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/sendgrid/rest"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrDeliveryFailed is returned when the provider rejects a message.
var ErrDeliveryFailed = errors.New("email delivery failed")

// Client is the subset of *sendgrid.Client the mailer uses.
type Client interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Config identifies the sender.
type Config struct {
	APIKey      string
	FromAddress string
	FromName    string
}

// Mailer implements notification.Mailer.
type Mailer struct {
	client Client
	from   *mail.Email
}

// NewMailer creates a Mailer backed by the real SendGrid client.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("sendgrid: api key is required")
	}
	if cfg.FromAddress == "" {
		return nil, errors.New("sendgrid: from address is required")
	}
	return NewMailerWithClient(sg.NewSendClient(cfg.APIKey), cfg.FromAddress, cfg.FromName), nil
}

// NewMailerWithClient creates a Mailer around an existing client.
func NewMailerWithClient(client Client, fromAddress, fromName string) *Mailer {
	return &Mailer{
		client: client,
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

// Send delivers msg. Any non-2xx response is reported as ErrDeliveryFailed.
func (m *Mailer) Send(ctx context.Context, msg notification.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	log := logger.FromContextOrDefault(ctx, nil).With("component", "sendgrid_mailer")

	email := mail.NewSingleEmailPlainText(m.from, msg.Subject, mail.NewEmail(msg.ToName, msg.To), msg.Body)
	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WarnContext(ctx, "provider rejected message",
			slog.Int("status_code", resp.StatusCode),
			slog.String("subject", msg.Subject))
		return fmt.Errorf("%w: provider returned status %d", ErrDeliveryFailed, resp.StatusCode)
	}

	log.DebugContext(ctx, "message accepted by provider",
		slog.Int("status_code", resp.StatusCode),
		slog.String("subject", msg.Subject))
	return nil
}

var _ notification.Mailer = (*Mailer)(nil)
