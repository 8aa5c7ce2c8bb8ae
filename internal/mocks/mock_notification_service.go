package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/gymdesk/domain"
)

// SentMessage is one notification captured by MockNotificationService.
type SentMessage struct {
	Kind string
	To   domain.Identifier
	Code string
	Name string
}

// MockNotificationService implements domain.NotificationService interface for testing
type MockNotificationService struct {
	SendOTPFunc        func(ctx context.Context, to domain.Identifier, code string, ttl time.Duration) error
	SendWelcomeFunc    func(ctx context.Context, to domain.Identifier, name string) error
	SendLoginAlertFunc func(ctx context.Context, to domain.Identifier, name string, at time.Time) error

	mu   sync.Mutex
	Sent []SentMessage
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

func (m *MockNotificationService) record(msg SentMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
}

// SendOTP captures the passcode
func (m *MockNotificationService) SendOTP(ctx context.Context, to domain.Identifier, code string, ttl time.Duration) error {
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, to, code, ttl)
	}
	m.record(SentMessage{Kind: "otp", To: to, Code: code})
	return nil
}

// SendWelcome captures a welcome message
func (m *MockNotificationService) SendWelcome(ctx context.Context, to domain.Identifier, name string) error {
	if m.SendWelcomeFunc != nil {
		return m.SendWelcomeFunc(ctx, to, name)
	}
	m.record(SentMessage{Kind: "welcome", To: to, Name: name})
	return nil
}

// SendLoginAlert captures a login alert
func (m *MockNotificationService) SendLoginAlert(ctx context.Context, to domain.Identifier, name string, at time.Time) error {
	if m.SendLoginAlertFunc != nil {
		return m.SendLoginAlertFunc(ctx, to, name, at)
	}
	m.record(SentMessage{Kind: "login_alert", To: to, Name: name})
	return nil
}

// LastCode returns the most recent passcode sent to value
func (m *MockNotificationService) LastCode(value string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.Sent) - 1; i >= 0; i-- {
		if m.Sent[i].Kind == "otp" && m.Sent[i].To.Value == value {
			return m.Sent[i].Code
		}
	}
	return ""
}

// Kinds lists the kinds of captured messages in order
func (m *MockNotificationService) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Sent))
	for i, s := range m.Sent {
		out[i] = s.Kind
	}
	return out
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)
