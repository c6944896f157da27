package nats

import (
	"context"
	"sync"
)

// MockPublisher is an in-memory Publisher for tests.
type MockPublisher struct {
	mu           sync.RWMutex
	events       []*LookupEvent
	publishError error
	closed       bool
}

// NewMockPublisher creates a new mock publisher for testing.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishLookup records the event and returns any configured error.
func (m *MockPublisher) PublishLookup(ctx context.Context, event *LookupEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.publishError != nil {
		return m.publishError
	}
	m.events = append(m.events, event)
	return nil
}

// Close marks the publisher as closed.
func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of all published events.
func (m *MockPublisher) Events() []*LookupEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]*LookupEvent, len(m.events))
	copy(events, m.events)
	return events
}

// EventsForAddress returns events published for a specific address.
func (m *MockPublisher) EventsForAddress(address string) []*LookupEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []*LookupEvent
	for _, e := range m.events {
		if e.Address == address {
			events = append(events, e)
		}
	}
	return events
}

// SetPublishError configures the mock to fail PublishLookup.
func (m *MockPublisher) SetPublishError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishError = err
}

// IsClosed returns whether the publisher has been closed.
func (m *MockPublisher) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}
