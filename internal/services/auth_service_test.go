package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/you/gymdesk/domain"
)

func TestAuthServiceImpl_Login(t *testing.T) {
	ctx := context.Background()
	existing := &domain.User{ID: 7, Phone: "9876543210", Name: "Ravi", Role: domain.RoleTrainer}

	tests := []struct {
		name          string
		identifier    string
		code          string
		opts          domain.LoginOptions
		expectedError error
		validate      func(t *testing.T, res *domain.AuthResult, deps *authDeps)
	}{
		{
			name:       "new email user gets local part as name",
			identifier: "neha.k@example.com",
			code:       "1234",
			validate: func(t *testing.T, res *domain.AuthResult, deps *authDeps) {
				if !res.IsNewUser {
					t.Error("expected new user")
				}
				if res.User.Name != "neha.k" || res.User.Role != domain.RoleMember {
					t.Errorf("unexpected user: %+v", res.User)
				}
				if !reflect.DeepEqual(deps.events.Types(), []domain.EventType{domain.UserRegisteredEvent}) {
					t.Errorf("unexpected events: %v", deps.events.Types())
				}
			},
		},
		{
			name:       "new phone user is named after last four digits",
			identifier: "+91 91234 56789",
			code:       "1234",
			opts:       domain.LoginOptions{NotifyWhatsApp: true},
			validate: func(t *testing.T, res *domain.AuthResult, deps *authDeps) {
				if res.User.Name != "User_6789" || res.User.Phone != "9123456789" {
					t.Errorf("unexpected user: %+v", res.User)
				}
				if !reflect.DeepEqual(deps.notifier.Kinds(), []string{"welcome"}) {
					t.Errorf("expected welcome message, got %v", deps.notifier.Kinds())
				}
			},
		},
		{
			name:       "returning phone user gets a login alert",
			identifier: "9876543210",
			code:       "1234",
			opts:       domain.LoginOptions{NotifyWhatsApp: true},
			validate: func(t *testing.T, res *domain.AuthResult, deps *authDeps) {
				if res.IsNewUser || res.User.ID != 7 {
					t.Errorf("expected existing user 7, got %+v", res.User)
				}
				if !reflect.DeepEqual(deps.notifier.Kinds(), []string{"login_alert"}) {
					t.Errorf("expected login alert, got %v", deps.notifier.Kinds())
				}
			},
		},
		{
			name:       "no whatsapp unless asked",
			identifier: "9876543210",
			code:       "1234",
			validate: func(t *testing.T, res *domain.AuthResult, deps *authDeps) {
				if len(deps.notifier.Kinds()) != 0 {
					t.Errorf("expected no messages, got %v", deps.notifier.Kinds())
				}
			},
		},
		{
			name:       "tokens are issued and refresh is stored",
			identifier: "9876543210",
			code:       "1234",
			validate: func(t *testing.T, res *domain.AuthResult, deps *authDeps) {
				if res.AccessToken != "access:7" {
					t.Errorf("unexpected access token %q", res.AccessToken)
				}
				if res.RefreshToken != "refresh:7:jti-1" || !deps.refreshes.Has("jti-1") {
					t.Errorf("refresh token not stored: %q", res.RefreshToken)
				}
			},
		},
		{
			name:          "bad code",
			identifier:    "9876543210",
			code:          "9999",
			expectedError: domain.ErrOTPNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed := *existing
			svc, deps := createAuthServiceForTest(t, &seed)

			res, err := svc.Login(ctx, mustIdentifier(t, tt.identifier), tt.code, tt.opts)

			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Fatalf("expected %v, got %v", tt.expectedError, err)
				}
				if res != nil {
					t.Error("expected nil result on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.validate(t, res, deps)
		})
	}
}

func TestAuthServiceImpl_LoginNotificationFailureIsIgnored(t *testing.T) {
	svc, deps := createAuthServiceForTest(t)
	deps.notifier.SendWelcomeFunc = func(ctx context.Context, to domain.Identifier, name string) error {
		return errors.New("twilio down")
	}
	res, err := svc.Login(context.Background(), mustIdentifier(t, "9123456789"), "1234", domain.LoginOptions{NotifyWhatsApp: true})
	if err != nil || res == nil {
		t.Fatalf("login should succeed, got %v", err)
	}
}

func TestAuthServiceImpl_LoginAlertUsesLocalTime(t *testing.T) {
	seed := &domain.User{ID: 3, Phone: "9876543210", Name: "Ravi"}
	svc, deps := createAuthServiceForTest(t, seed)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }

	var got time.Time
	deps.notifier.SendLoginAlertFunc = func(ctx context.Context, to domain.Identifier, name string, at time.Time) error {
		got = at
		return nil
	}
	if _, err := svc.Login(context.Background(), mustIdentifier(t, "9876543210"), "1234", domain.LoginOptions{NotifyWhatsApp: true}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location().String() != "Asia/Kolkata" || got.Hour() != 5 || got.Minute() != 30 {
		t.Errorf("expected 05:30 IST, got %v", got)
	}
}

func TestAuthServiceImpl_Refresh(t *testing.T) {
	ctx := context.Background()
	svc, deps := createAuthServiceForTest(t, &domain.User{ID: 4, Email: "a@b.co"})

	login, err := svc.Login(ctx, mustIdentifier(t, "a@b.co"), "1234", domain.LoginOptions{})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == login.RefreshToken {
		t.Error("refresh token should rotate")
	}
	if deps.refreshes.Has("jti-1") || !deps.refreshes.Has("jti-2") {
		t.Error("old jti should be consumed and new one stored")
	}

	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("reusing a refresh token should fail, got %v", err)
	}
	if _, err := svc.Refresh(ctx, rotated.AccessToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("access token is not a refresh token, got %v", err)
	}
}

func TestAuthServiceImpl_Logout(t *testing.T) {
	ctx := context.Background()
	svc, deps := createAuthServiceForTest(t, &domain.User{ID: 4, Email: "a@b.co"})
	login, _ := svc.Login(ctx, mustIdentifier(t, "a@b.co"), "1234", domain.LoginOptions{})

	if err := svc.Logout(ctx, login.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if deps.refreshes.Has("jti-1") {
		t.Error("refresh token should be revoked")
	}
	if _, err := svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid after logout, got %v", err)
	}
	if err := svc.Logout(ctx, "garbage"); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestAuthServiceImpl_Authenticate(t *testing.T) {
	ctx := context.Background()
	svc, _ := createAuthServiceForTest(t, &domain.User{ID: 4, Email: "a@b.co", Role: domain.RoleAdmin})

	tests := []struct {
		name          string
		token         string
		expectedError error
	}{
		{name: "valid token", token: "access:4"},
		{name: "deleted user", token: "access:99", expectedError: domain.ErrAuthUserNotFound},
		{name: "malformed", token: "nope", expectedError: domain.ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := svc.Authenticate(ctx, tt.token)
			if tt.expectedError != nil {
				if !errors.Is(err, tt.expectedError) {
					t.Errorf("expected %v, got %v", tt.expectedError, err)
				}
				return
			}
			if err != nil || user.ID != 4 || !user.Role.IsAdmin() {
				t.Errorf("unexpected result %+v, %v", user, err)
			}
		})
	}
}

func TestDefaultName(t *testing.T) {
	tests := []struct {
		in   domain.Identifier
		want string
	}{
		{domain.Identifier{Kind: domain.IdentifierEmail, Value: "first.last@gym.in"}, "first.last"},
		{domain.Identifier{Kind: domain.IdentifierPhone, Value: "9876543210"}, "User_3210"},
	}
	for _, tt := range tests {
		if got := defaultName(tt.in); got != tt.want {
			t.Errorf("defaultName(%v) = %q, want %q", tt.in.Value, got, tt.want)
		}
	}
}
