package mocks

import (
	"context"
	"time"

	"github.com/you/gymdesk/domain"
)

// MockOTPService implements domain.OTPService interface for testing
type MockOTPService struct {
	IssueFunc  func(ctx context.Context, to domain.Identifier) (*domain.OTPIssue, error)
	VerifyFunc func(ctx context.Context, to domain.Identifier, code string) error
}

// NewMockOTPService creates a new MockOTPService with default behaviors
func NewMockOTPService() *MockOTPService {
	return &MockOTPService{}
}

// Issue issues a passcode
func (m *MockOTPService) Issue(ctx context.Context, to domain.Identifier) (*domain.OTPIssue, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, to)
	}
	return &domain.OTPIssue{Identifier: to, ExpiresAt: time.Now().Add(10 * time.Minute), Delivered: true}, nil
}

// Verify accepts "1234" and rejects anything else
func (m *MockOTPService) Verify(ctx context.Context, to domain.Identifier, code string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, to, code)
	}
	if code != "1234" {
		return domain.ErrOTPNotFound
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.OTPService = (*MockOTPService)(nil)
