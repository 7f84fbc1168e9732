package service

import (
	"context"
	"sync"

	"pagebuilder/internal/log"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from their listeners
// ─────────────────────────────────────────────────────────────

const (
	EventPageUpdated      = "page:updated"
	EventPagePublished    = "page:published"
	EventPageUnpublished  = "page:unpublished"
	EventThemeUpdated     = "theme:updated"
	EventThemePublished   = "theme:published"
	EventThemeActivated   = "theme:activated"
	EventSectionsReloaded = "sections:reloaded"
)

// EventEmitter receives lifecycle notifications from services.
// Services receive this interface instead of a concrete listener,
// which makes them independently testable with a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// LogEmitter writes every event to the log.
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, event string, data any) {
	log.Info(log.CatHTTP, "event", "name", event, "data", data)
}

// FanOut forwards events to every listener in order.
type FanOut []EventEmitter

func (f FanOut) Emit(ctx context.Context, event string, data any) {
	for _, e := range f {
		if e != nil {
			e.Emit(ctx, event, data)
		}
	}
}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Names returns the recorded event names in order.
func (m *MockEmitter) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.Events))
	for i, e := range m.Events {
		names[i] = e.Event
	}
	return names
}

func emit(ctx context.Context, e EventEmitter, event string, data any) {
	if e != nil {
		e.Emit(ctx, event, data)
	}
}
