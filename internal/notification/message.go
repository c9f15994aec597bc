package notification

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMessage is returned when a message lacks a recipient or subject.
var ErrInvalidMessage = errors.New("invalid message")

// Message is a plain-text email addressed to a single recipient.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Validate checks that the message can be handed to a provider.
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	}
	return nil
}

// WelcomeMessage is sent after a user registers.
func WelcomeMessage(email, name string) Message {
	return Message{
		To:      email,
		ToName:  name,
		Subject: "Thanks for joining in!",
		Body:    fmt.Sprintf("Welcome to the app, %s. Let me know how you get along with the app.", name),
	}
}

// CancellationMessage is sent after a user deletes their account.
func CancellationMessage(email, name string) Message {
	return Message{
		To:      email,
		ToName:  name,
		Subject: "Sorry to see you go!",
		Body:    fmt.Sprintf("Goodbye %s, I hope to see you back sometime soon.", name),
	}
}
