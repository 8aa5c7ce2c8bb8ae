package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/gymdesk/domain"
)

// MockRefreshTokenStore implements domain.RefreshTokenStore in memory
type MockRefreshTokenStore struct {
	SaveFunc func(ctx context.Context, jti string, userID uint, ttl time.Duration) error

	mu     sync.Mutex
	tokens map[string]uint
}

// NewMockRefreshTokenStore creates an empty store
func NewMockRefreshTokenStore() *MockRefreshTokenStore {
	return &MockRefreshTokenStore{tokens: make(map[string]uint)}
}

// Save records jti for userID
func (m *MockRefreshTokenStore) Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, jti, userID, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[jti] = userID
	return nil
}

// Consume removes jti and returns its owner
func (m *MockRefreshTokenStore) Consume(ctx context.Context, jti string) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uid, ok := m.tokens[jti]
	if !ok {
		return 0, domain.ErrTokenInvalid
	}
	delete(m.tokens, jti)
	return uid, nil
}

// Revoke removes jti
func (m *MockRefreshTokenStore) Revoke(ctx context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, jti)
	return nil
}

// Has reports whether jti is still redeemable (test helper)
func (m *MockRefreshTokenStore) Has(jti string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[jti]
	return ok
}

// Compile-time interface compliance verification
var _ domain.RefreshTokenStore = (*MockRefreshTokenStore)(nil)
