package events

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/phrazzld/tasks-api/internal/platform/logger"
)

type subscription struct {
	handler EventHandler
	types   []string // empty matches every type
}

func (s subscription) matches(eventType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// InMemoryEventEmitter delivers events synchronously to the handlers
// registered in this process, in registration order.
type InMemoryEventEmitter struct {
	mu     sync.RWMutex
	subs   []subscription
	logger *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

func NewInMemoryEventEmitter(log *slog.Logger) *InMemoryEventEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &InMemoryEventEmitter{logger: log.With(slog.String("component", "event_emitter"))}
}

// RegisterHandler subscribes handler to the given event types, or to all
// events when none are given.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler, types ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, subscription{handler: handler, types: types})
}

// EmitEvent hands event to every matching handler. A failing handler does
// not stop delivery to the rest; all failures are joined into the result.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *Event) error {
	e.mu.RLock()
	subs := slices.Clone(e.subs)
	e.mu.RUnlock()

	log := logger.FromContextOrDefault(ctx, e.logger).With(
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))

	var errs []error
	delivered := 0
	for _, sub := range subs {
		if !sub.matches(event.Type) {
			continue
		}
		delivered++
		if err := sub.handler.HandleEvent(ctx, event); err != nil {
			log.Error("event handler failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if delivered == 0 {
		log.Warn("event had no subscribers")
	} else {
		log.Debug("event delivered", slog.Int("handlers", delivered))
	}
	return errors.Join(errs...)
}
