package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/you/gymdesk/domain"
)

// BcryptCodeHasher implements domain.CodeHasher
type BcryptCodeHasher struct {
	cost int
}

// NewCodeHasher creates a hasher with the given bcrypt cost. Zero means bcrypt.DefaultCost.
func NewCodeHasher(cost int) domain.CodeHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptCodeHasher{cost: cost}
}

// Hash implements domain.CodeHasher
func (h *BcryptCodeHasher) Hash(code string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify implements domain.CodeHasher
func (h *BcryptCodeHasher) Verify(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
