package mocks

import (
	"context"

	"github.com/you/gymdesk/domain"
)

// MockAuthService implements domain.AuthService interface for testing
type MockAuthService struct {
	LoginFunc        func(ctx context.Context, to domain.Identifier, code string, opts domain.LoginOptions) (*domain.AuthResult, error)
	RefreshFunc      func(ctx context.Context, refreshToken string) (*domain.AuthResult, error)
	LogoutFunc       func(ctx context.Context, refreshToken string) error
	AuthenticateFunc func(ctx context.Context, accessToken string) (*domain.User, error)

	// Users resolves access tokens of the form "token-<id>" when AuthenticateFunc is unset.
	Users map[string]*domain.User
}

// NewMockAuthService creates a new MockAuthService with default behaviors
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{Users: make(map[string]*domain.User)}
}

// Login authenticates a passcode and returns tokens
func (m *MockAuthService) Login(ctx context.Context, to domain.Identifier, code string, opts domain.LoginOptions) (*domain.AuthResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, to, code, opts)
	}
	user := &domain.User{ID: 1, Role: domain.RoleMember}
	if to.Kind == domain.IdentifierEmail {
		user.Email = to.Value
	} else {
		user.Phone = to.Value
	}
	return &domain.AuthResult{User: user, AccessToken: "mock_access_token", RefreshToken: "mock_refresh_token"}, nil
}

// Refresh exchanges a refresh token
func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	return &domain.AuthResult{
		User:         &domain.User{ID: 1, Role: domain.RoleMember},
		AccessToken:  "new_mock_access_token",
		RefreshToken: "new_mock_refresh_token",
	}, nil
}

// Logout revokes a refresh token
func (m *MockAuthService) Logout(ctx context.Context, refreshToken string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, refreshToken)
	}
	return nil
}

// Authenticate resolves an access token
func (m *MockAuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(ctx, accessToken)
	}
	if u, ok := m.Users[accessToken]; ok {
		return u, nil
	}
	return nil, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var _ domain.AuthService = (*MockAuthService)(nil)
