package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
)

// Context keys set by the access guard.
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
	ContextUser     = "user"
)

// AuthMW wraps the auth service for middleware
type AuthMW struct {
	auth domain.AuthService
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(auth domain.AuthService) *AuthMW {
	return &AuthMW{auth: auth}
}

// WithJWT returns the JWT middleware function
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.auth)
}

// CurrentUser returns the user resolved by the access guard.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*domain.User)
	return u, ok && u != nil
}
