package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/domain"
	"github.com/Apurer/go-gin-pet-finder/internal/domains/pets/ports"
)

var _ ports.EventPublisher = (*EventRecorder)(nil)

// EventRecorder keeps published events in memory for development and tests.
type EventRecorder struct {
	mu     sync.RWMutex
	events []domain.Event
	err    error
}

// NewEventRecorder constructs an empty recorder.
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// FailWith makes subsequent Publish calls return err without recording anything.
func (r *EventRecorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Publish records the events in order.
func (r *EventRecorder) Publish(_ context.Context, events ...domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything published so far.
func (r *EventRecorder) Events() []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Event(nil), r.events...)
}

// Names returns the event names published so far.
func (r *EventRecorder) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		names = append(names, evt.EventName())
	}
	return names
}
