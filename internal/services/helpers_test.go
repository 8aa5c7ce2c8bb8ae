package services

import (
	"testing"
	"time"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/mocks"
)

// authDeps bundles the collaborators of an AuthService under test.
type authDeps struct {
	users     *mocks.MockUserRepository
	otp       *mocks.MockOTPService
	tokens    *mocks.MockTokenService
	refreshes *mocks.MockRefreshTokenStore
	notifier  *mocks.MockNotificationService
	events    *mocks.MockEventPublisher
}

// createAuthServiceForTest creates an AuthService with mock dependencies for testing
func createAuthServiceForTest(t *testing.T, seed ...*domain.User) (*AuthServiceImpl, *authDeps) {
	t.Helper()

	deps := &authDeps{
		users:     mocks.NewMockUserRepository(seed...),
		otp:       mocks.NewMockOTPService(),
		tokens:    mocks.NewMockTokenService(),
		refreshes: mocks.NewMockRefreshTokenStore(),
		notifier:  mocks.NewMockNotificationService(),
		events:    mocks.NewMockEventPublisher(),
	}
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	svc := NewAuthService(deps.users, deps.otp, deps.tokens, deps.refreshes, deps.notifier, deps.events, nil, loc)
	return svc, deps
}

// createOTPServiceForTest creates an OTPService on an in-memory store with a settable clock
func createOTPServiceForTest(t *testing.T) (*OTPServiceImpl, *mocks.MockOTPRepository, *mocks.MockNotificationService, *fakeClock) {
	t.Helper()

	repo := mocks.NewMockOTPRepository()
	notifier := mocks.NewMockNotificationService()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := NewOTPService(repo, mocks.NewMockCodeHasher(), notifier, mocks.NewMockEventPublisher(), nil, createTestOTPConfig(t)).
		WithClock(clock.Now)
	return svc, repo, notifier, clock
}

// createTestOTPConfig creates a test OTP configuration
func createTestOTPConfig(t *testing.T) OTPConfig {
	t.Helper()

	return OTPConfig{
		Length:       4,
		TTL:          10 * time.Minute,
		MaxAttempts:  3,
		ResendWindow: 2 * time.Minute,
	}
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func mustIdentifier(t *testing.T, raw string) domain.Identifier {
	t.Helper()
	id, err := domain.ParseIdentifier(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return id
}

func ptr[T any](v T) *T { return &v }
