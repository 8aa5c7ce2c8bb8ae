package mocks

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/you/gymdesk/domain"
)

// MockTokenService implements domain.TokenService interface for testing.
// Default tokens are readable strings: "access:<id>" and "refresh:<id>:<jti>".
type MockTokenService struct {
	GenerateAccessTokenFunc  func(user *domain.User) (string, error)
	GenerateRefreshTokenFunc func(user *domain.User) (string, string, error)
	ValidateAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	ValidateRefreshTokenFunc func(token string) (*domain.TokenClaims, error)

	TTL    time.Duration
	serial atomic.Int64
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{TTL: 30 * 24 * time.Hour}
}

// GenerateAccessToken generates an access token for the user
func (m *MockTokenService) GenerateAccessToken(user *domain.User) (string, error) {
	if m.GenerateAccessTokenFunc != nil {
		return m.GenerateAccessTokenFunc(user)
	}
	return fmt.Sprintf("access:%d", user.ID), nil
}

// GenerateRefreshToken generates a refresh token and its jti
func (m *MockTokenService) GenerateRefreshToken(user *domain.User) (string, string, error) {
	if m.GenerateRefreshTokenFunc != nil {
		return m.GenerateRefreshTokenFunc(user)
	}
	jti := fmt.Sprintf("jti-%d", m.serial.Add(1))
	return fmt.Sprintf("refresh:%d:%s", user.ID, jti), jti, nil
}

// ValidateAccessToken validates an access token and returns claims
func (m *MockTokenService) ValidateAccessToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateAccessTokenFunc != nil {
		return m.ValidateAccessTokenFunc(token)
	}
	parts := strings.Split(token, ":")
	if len(parts) != 2 || parts[0] != "access" {
		return nil, domain.ErrTokenInvalid
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.TokenClaims{UserID: uint(id), Type: "access", IssuedAt: time.Now().Unix()}, nil
}

// ValidateRefreshToken validates a refresh token and returns claims
func (m *MockTokenService) ValidateRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.ValidateRefreshTokenFunc != nil {
		return m.ValidateRefreshTokenFunc(token)
	}
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "refresh" {
		return nil, domain.ErrTokenInvalid
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return &domain.TokenClaims{UserID: uint(id), Type: "refresh", ID: parts[2], IssuedAt: time.Now().Unix()}, nil
}

// RefreshTTL returns the configured refresh lifetime
func (m *MockTokenService) RefreshTTL() time.Duration {
	return m.TTL
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
