package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/tasks-api/internal/events"
)

// MockEventEmitter records emitted events for testing.
type MockEventEmitter struct {
	// EmitEventFn overrides the default recording behavior when set
	EmitEventFn func(ctx context.Context, event *events.Event) error

	// Err is returned by the default implementation after recording
	Err error

	mu     sync.Mutex
	events []*events.Event
}

// EmitEvent implements events.EventEmitter
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.Event) error {
	if m.EmitEventFn != nil {
		return m.EmitEventFn(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.Err
}

// Events returns the recorded events in emission order.
func (m *MockEventEmitter) Events() []*events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*events.Event(nil), m.events...)
}

// EventsOfType returns the recorded events with the given type.
func (m *MockEventEmitter) EventsOfType(eventType string) []*events.Event {
	var matched []*events.Event
	for _, event := range m.Events() {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)
