package job

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasks-api/internal/notification"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// mockJob is a minimal Job whose Execute behaviour is set per test.
type mockJob struct {
	id        uuid.UUID
	jobType   string
	payload   []byte
	status    Status
	executeFn func(ctx context.Context) error
}

func newMockJob(jobType string) *mockJob {
	return &mockJob{
		id:        uuid.New(),
		jobType:   jobType,
		payload:   []byte(`{}`),
		status:    StatusPending,
		executeFn: func(ctx context.Context) error { return nil },
	}
}

func (j *mockJob) ID() uuid.UUID                     { return j.id }
func (j *mockJob) Type() string                      { return j.jobType }
func (j *mockJob) Payload() []byte                   { return j.payload }
func (j *mockJob) Status() Status                    { return j.status }
func (j *mockJob) Execute(ctx context.Context) error { return j.executeFn(ctx) }

// mockFactory rebuilds mockJobs from records.
type mockFactory struct {
	executeFn func(ctx context.Context) error
}

func (f *mockFactory) Rehydrate(rec Record) (Job, error) {
	j := &mockJob{id: rec.ID, jobType: rec.Type, payload: rec.Payload, status: rec.Status, executeFn: f.executeFn}
	if j.executeFn == nil {
		j.executeFn = func(ctx context.Context) error { return nil }
	}
	return j, nil
}

// recordingMailer captures messages and optionally fails.
type recordingMailer struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (m *recordingMailer) Send(ctx context.Context, msg notification.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []notification.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notification.Message(nil), m.sent...)
}

// waitForStatus polls the store until the job reaches want or the test times out.
func waitForStatus(t *testing.T, s Store, id uuid.UUID, want Status) *Record {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := s.GetJob(context.Background(), id)
		if err == nil && rec.Status == want {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	rec, _ := s.GetJob(context.Background(), id)
	t.Fatalf("job %s did not reach status %q, last record: %+v", id, want, rec)
	return nil
}
