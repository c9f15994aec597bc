package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

// TestLogBuffer collects log output from concurrent writers, such as job
// workers, for inspection in tests.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries decodes the JSON records written so far.
func (b *TestLogBuffer) Entries() ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewBufferString(b.String()))
	var entries []map[string]any
	for {
		var entry map[string]any
		err := dec.Decode(&entry)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// NewTestLogger returns a debug-level JSON logger and the buffer it writes to.
func NewTestLogger(t testing.TB) (*slog.Logger, *TestLogBuffer) {
	t.Helper()
	buf := &TestLogBuffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// CaptureDefault makes a test logger the slog default until t finishes.
func CaptureDefault(t testing.TB) (*slog.Logger, *TestLogBuffer) {
	t.Helper()
	l, buf := NewTestLogger(t)
	prev := slog.Default()
	slog.SetDefault(l)
	t.Cleanup(func() { slog.SetDefault(prev) })
	return l, buf
}
