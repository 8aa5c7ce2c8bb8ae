package services

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/mocks"
)

func TestOTPServiceImpl_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("code is four digits and delivered", func(t *testing.T) {
		svc, repo, notifier, _ := createOTPServiceForTest(t)
		to := mustIdentifier(t, "Ana@Example.com")

		issue, err := svc.Issue(ctx, to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !issue.Delivered {
			t.Error("expected delivery")
		}
		code := notifier.LastCode("ana@example.com")
		n, err := strconv.Atoi(code)
		if err != nil || n < 1000 || n > 9999 {
			t.Errorf("expected a code in [1000, 9999], got %q", code)
		}
		stored := repo.Latest()
		if stored.CodeHash == code {
			t.Error("code stored in clear")
		}
		if got := stored.ExpiresAt.Sub(stored.CreatedAt); got != 10*time.Minute {
			t.Errorf("expected 10 minute expiry, got %v", got)
		}
	})

	t.Run("cooldown reports minutes to wait", func(t *testing.T) {
		svc, _, _, clock := createOTPServiceForTest(t)
		to := mustIdentifier(t, "9876543210")

		if _, err := svc.Issue(ctx, to); err != nil {
			t.Fatalf("first issue: %v", err)
		}
		clock.Advance(30 * time.Second)
		_, err := svc.Issue(ctx, to)
		if !errors.Is(err, domain.ErrOTPCooldown) {
			t.Fatalf("expected ErrOTPCooldown, got %v", err)
		}
		var de *domain.Error
		if !errors.As(err, &de) || de.Details["retryAfterMinutes"] != 2 {
			t.Errorf("expected retryAfterMinutes 2, got %+v", de)
		}
		if de.Message != "Please wait 2 minute(s) before requesting a new OTP" {
			t.Errorf("unexpected message %q", de.Message)
		}

		clock.Advance(60 * time.Second)
		_, err = svc.Issue(ctx, to)
		if !errors.As(err, &de) || de.Details["retryAfterMinutes"] != 1 {
			t.Errorf("expected retryAfterMinutes 1 after 90s, got %v", err)
		}

		clock.Advance(30 * time.Second)
		if _, err := svc.Issue(ctx, to); err != nil {
			t.Errorf("expected issue after window, got %v", err)
		}
	})

	t.Run("delivery failure is not fatal", func(t *testing.T) {
		svc, repo, notifier, _ := createOTPServiceForTest(t)
		notifier.SendOTPFunc = func(ctx context.Context, to domain.Identifier, code string, ttl time.Duration) error {
			return errors.New("twilio down")
		}
		issue, err := svc.Issue(ctx, mustIdentifier(t, "9876543210"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if issue.Delivered {
			t.Error("expected Delivered=false")
		}
		if repo.Latest() == nil {
			t.Error("record should still be stored")
		}
	})

	t.Run("new code replaces pending one", func(t *testing.T) {
		svc, repo, notifier, clock := createOTPServiceForTest(t)
		to := mustIdentifier(t, "a@b.co")
		_, _ = svc.Issue(ctx, to)
		first := notifier.LastCode("a@b.co")
		clock.Advance(3 * time.Minute)
		_, _ = svc.Issue(ctx, to)

		latest, _ := repo.FindLatestUnverified(ctx, "a@b.co")
		if latest.ID != repo.Latest().ID {
			t.Error("expected only the newest record pending")
		}
		second := notifier.LastCode("a@b.co")
		if first != second {
			if err := svc.Verify(ctx, to, first); !errors.Is(err, domain.ErrOTPNotFound) {
				t.Errorf("old code should be dead, got %v", err)
			}
		}
	})
}

func TestOTPServiceImpl_Verify(t *testing.T) {
	ctx := context.Background()
	to := domain.Identifier{Kind: domain.IdentifierEmail, Value: "a@b.co"}

	tests := []struct {
		name      string
		run       func(t *testing.T, svc *OTPServiceImpl, clock *fakeClock, code string) error
		wantError error
	}{
		{
			name: "correct code",
			run: func(t *testing.T, svc *OTPServiceImpl, _ *fakeClock, code string) error {
				return svc.Verify(ctx, to, code)
			},
		},
		{
			name: "wrong code looks like a missing one",
			run: func(t *testing.T, svc *OTPServiceImpl, _ *fakeClock, code string) error {
				return svc.Verify(ctx, to, "0000")
			},
			wantError: domain.ErrOTPNotFound,
		},
		{
			name: "codes are single use",
			run: func(t *testing.T, svc *OTPServiceImpl, _ *fakeClock, code string) error {
				if err := svc.Verify(ctx, to, code); err != nil {
					t.Fatalf("first verify: %v", err)
				}
				return svc.Verify(ctx, to, code)
			},
			wantError: domain.ErrOTPNotFound,
		},
		{
			name: "expired",
			run: func(t *testing.T, svc *OTPServiceImpl, clock *fakeClock, code string) error {
				clock.Advance(11 * time.Minute)
				return svc.Verify(ctx, to, code)
			},
			wantError: domain.ErrOTPExpired,
		},
		{
			name: "locked after three misses",
			run: func(t *testing.T, svc *OTPServiceImpl, _ *fakeClock, code string) error {
				for i := 0; i < 3; i++ {
					if err := svc.Verify(ctx, to, "0000"); !errors.Is(err, domain.ErrOTPNotFound) {
						t.Fatalf("miss %d: %v", i, err)
					}
				}
				return svc.Verify(ctx, to, code)
			},
			wantError: domain.ErrOTPAttemptsExceeded,
		},
		{
			name: "two misses still allow the right code",
			run: func(t *testing.T, svc *OTPServiceImpl, _ *fakeClock, code string) error {
				_ = svc.Verify(ctx, to, "0000")
				_ = svc.Verify(ctx, to, "0000")
				return svc.Verify(ctx, to, code)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, notifier, clock := createOTPServiceForTest(t)
			if _, err := svc.Issue(ctx, to); err != nil {
				t.Fatalf("issue: %v", err)
			}
			code := notifier.LastCode(to.Value)

			err := tt.run(t, svc, clock, code)
			if tt.wantError == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantError != nil && !errors.Is(err, tt.wantError) {
				t.Errorf("expected %v, got %v", tt.wantError, err)
			}
		})
	}

	t.Run("nothing issued", func(t *testing.T) {
		svc, _, _, _ := createOTPServiceForTest(t)
		if err := svc.Verify(ctx, to, "1234"); !errors.Is(err, domain.ErrOTPNotFound) {
			t.Errorf("expected ErrOTPNotFound, got %v", err)
		}
	})

	t.Run("attempt counter is persisted", func(t *testing.T) {
		repo := mocks.NewMockOTPRepository()
		svc := NewOTPService(repo, mocks.NewMockCodeHasher(), mocks.NewMockNotificationService(), nil, nil, createTestOTPConfig(t))
		_, _ = svc.Issue(ctx, to)
		_ = svc.Verify(ctx, to, "0000")
		if got := repo.Latest().Attempts; got != 1 {
			t.Errorf("expected 1 attempt stored, got %d", got)
		}
	})
}
