package mocks

import (
	"context"
	"sync"

	"github.com/you/gymdesk/domain"
)

// MockOTPRepository implements domain.OTPRepository with an in-memory store.
type MockOTPRepository struct {
	CreateFunc func(ctx context.Context, otp *domain.OTP) error
	UpdateFunc func(ctx context.Context, otp *domain.OTP) error

	mu      sync.Mutex
	records []*domain.OTP
}

// NewMockOTPRepository creates an empty MockOTPRepository
func NewMockOTPRepository() *MockOTPRepository {
	return &MockOTPRepository{}
}

// Create stores a passcode record
func (m *MockOTPRepository) Create(ctx context.Context, otp *domain.OTP) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, otp)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	otp.ID = uint(len(m.records) + 1)
	c := *otp
	m.records = append(m.records, &c)
	return nil
}

// FindLatestUnverified returns the newest pending record for identifier
func (m *MockOTPRepository) FindLatestUnverified(ctx context.Context, identifier string) (*domain.OTP, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r != nil && r.Identifier == identifier && !r.IsVerified {
			c := *r
			return &c, nil
		}
	}
	return nil, domain.ErrOTPNotFound
}

// DeleteUnverified drops every pending record for identifier
func (m *MockOTPRepository) DeleteUnverified(ctx context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r != nil && r.Identifier == identifier && !r.IsVerified {
			m.records[i] = nil
		}
	}
	return nil
}

// Update persists the verified flag and attempt counter
func (m *MockOTPRepository) Update(ctx context.Context, otp *domain.OTP) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, otp)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r != nil && r.ID == otp.ID {
			r.IsVerified = otp.IsVerified
			r.Attempts = otp.Attempts
			return nil
		}
	}
	return domain.ErrOTPNotFound
}

// Latest returns the newest stored record regardless of state (test helper)
func (m *MockOTPRepository) Latest() *domain.OTP {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i] != nil {
			c := *m.records[i]
			return &c
		}
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.OTPRepository = (*MockOTPRepository)(nil)
