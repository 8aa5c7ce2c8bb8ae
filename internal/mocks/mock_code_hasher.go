package mocks

import "github.com/you/gymdesk/domain"

// MockCodeHasher implements domain.CodeHasher interface for testing
type MockCodeHasher struct {
	HashFunc   func(code string) (string, error)
	VerifyFunc func(hash, code string) bool
}

// NewMockCodeHasher creates a new MockCodeHasher with default behaviors
func NewMockCodeHasher() *MockCodeHasher {
	return &MockCodeHasher{}
}

// Hash returns a reversible stand-in hash
func (m *MockCodeHasher) Hash(code string) (string, error) {
	if m.HashFunc != nil {
		return m.HashFunc(code)
	}
	return "hashed_" + code, nil
}

// Verify compares against the stand-in hash
func (m *MockCodeHasher) Verify(hash, code string) bool {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(hash, code)
	}
	return hash == "hashed_"+code
}

// Compile-time interface compliance verification
var _ domain.CodeHasher = (*MockCodeHasher)(nil)
