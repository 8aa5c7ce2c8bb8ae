package mocks

import (
	"context"
	"sync"

	"github.com/you/gymdesk/domain"
)

// MockEventPublisher implements domain.EventPublisher and keeps every event
type MockEventPublisher struct {
	PublishFunc func(ctx context.Context, event *domain.Event) error

	mu     sync.Mutex
	Events []*domain.Event
	Closed bool
}

// NewMockEventPublisher creates a new MockEventPublisher
func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

// Publish records the event
func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// Close marks the publisher closed
func (m *MockEventPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Types lists the published event types in order (test helper)
func (m *MockEventPublisher) Types() []domain.EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.EventType, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

// Compile-time interface compliance verification
var _ domain.EventPublisher = (*MockEventPublisher)(nil)
