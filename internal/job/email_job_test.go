package job

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailJobFactory(t *testing.T) {
	t.Parallel()

	mailer := &recordingMailer{}
	factory := NewEmailJobFactory(mailer, discardLogger())

	t.Run("welcome job", func(t *testing.T) {
		j, err := factory.NewWelcomeJob("ada@example.com", "Ada")
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, j.ID())
		assert.Equal(t, TypeWelcomeEmail, j.Type())
		assert.Equal(t, StatusPending, j.Status())
		assert.JSONEq(t, `{"email":"ada@example.com","name":"Ada"}`, string(j.Payload()))

		msg, err := j.Message()
		require.NoError(t, err)
		assert.Equal(t, "Thanks for joining in!", msg.Subject)
		assert.Equal(t, "ada@example.com", msg.To)
	})

	t.Run("cancellation job", func(t *testing.T) {
		j, err := factory.NewCancellationJob("ada@example.com", "Ada")
		require.NoError(t, err)

		msg, err := j.Message()
		require.NoError(t, err)
		assert.Equal(t, "Sorry to see you go!", msg.Subject)
		assert.Equal(t, "Goodbye Ada, I hope to see you back sometime soon.", msg.Body)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := factory.NewWelcomeJob(" ", "Ada")
		assert.ErrorIs(t, err, ErrInvalidPayload)
	})
}

func TestEmailJobExecute(t *testing.T) {
	t.Parallel()

	t.Run("sends through mailer", func(t *testing.T) {
		mailer := &recordingMailer{}
		j, err := NewEmailJobFactory(mailer, discardLogger()).NewWelcomeJob("ada@example.com", "Ada")
		require.NoError(t, err)

		require.NoError(t, j.Execute(context.Background()))
		sent := mailer.messages()
		require.Len(t, sent, 1)
		assert.Equal(t, "Welcome to the app, Ada. Let me know how you get along with the app.", sent[0].Body)
	})

	t.Run("mailer error is wrapped", func(t *testing.T) {
		mailerErr := errors.New("provider down")
		mailer := &recordingMailer{err: mailerErr}
		j, err := NewEmailJobFactory(mailer, discardLogger()).NewCancellationJob("ada@example.com", "Ada")
		require.NoError(t, err)

		err = j.Execute(context.Background())
		assert.ErrorIs(t, err, mailerErr)
		assert.Contains(t, err.Error(), TypeCancellationEmail)
	})
}

func TestEmailJobRehydrate(t *testing.T) {
	t.Parallel()

	factory := NewEmailJobFactory(&recordingMailer{}, discardLogger())
	id := uuid.New()

	j, err := factory.Rehydrate(Record{
		ID:      id,
		Type:    TypeWelcomeEmail,
		Payload: []byte(`{"email":"ada@example.com","name":"Ada"}`),
		Status:  StatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, id, j.ID())
	assert.Equal(t, StatusProcessing, j.Status())

	_, err = factory.Rehydrate(Record{ID: id, Type: "report", Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrUnknownJobType)

	_, err = factory.Rehydrate(Record{ID: id, Type: TypeWelcomeEmail, Payload: []byte(`not json`)})
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = factory.Rehydrate(Record{ID: id, Type: TypeWelcomeEmail, Payload: []byte(`{"name":"Ada"}`)})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestEmailJobThroughRunner(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	mailer := &recordingMailer{err: errors.New("rejected")}
	factory := NewEmailJobFactory(mailer, discardLogger())
	runner := NewRunner(st, testRunnerConfig(), discardLogger())
	factory.Register(runner)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	j, err := factory.NewWelcomeJob("ada@example.com", "Ada")
	require.NoError(t, err)
	require.NoError(t, runner.Submit(context.Background(), j))

	rec := waitForStatus(t, st, j.ID(), StatusFailed)
	assert.Contains(t, rec.ErrorMessage, "rejected")
}
