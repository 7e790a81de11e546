package services

import (
	"context"
	"sync"
)

// MockEventPublisher records published events for assertions
type MockEventPublisher struct {
	events []JobEvent
	mu     sync.Mutex
}

// NewMockEventPublisher creates an empty recorder
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// SetAsMockForTesting installs this mock as the global publisher
func (m *MockEventPublisher) SetAsMockForTesting() {
	SetEventPublisher(m)
}

// PublishJobEvent records the event
func (m *MockEventPublisher) PublishJobEvent(ctx context.Context, event JobEvent) error {
	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far
func (m *MockEventPublisher) Events() []JobEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]JobEvent, len(m.events))
	copy(out, m.events)
	return out
}

// Actions returns the action names in publish order
func (m *MockEventPublisher) Actions() []string {
	var actions []string
	for _, e := range m.Events() {
		actions = append(actions, e.Action)
	}
	return actions
}

// Clear forgets recorded events
func (m *MockEventPublisher) Clear() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
