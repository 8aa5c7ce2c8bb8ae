package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/config"
	"github.com/you/gymdesk/internal/infrastructure/auth"
	"github.com/you/gymdesk/internal/pkg/response"
)

// CasbinMiddleware defines the interface for Casbin authorization middleware
type CasbinMiddleware interface {
	Enforce() gin.HandlerFunc
}

// CasbinMW checks the caller's role against the route template, falling
// back to the owner subject when an ownership rule matches.
type CasbinMW struct {
	enforcer domain.CasbinEnforcer
	rules    []config.OwnershipRule
}

// NewCasbinMW creates new casbin middleware wrapper
func NewCasbinMW(enforcer domain.CasbinEnforcer, rules []config.OwnershipRule) *CasbinMW {
	return &CasbinMW{enforcer: enforcer, rules: rules}
}

// Enforce returns the casbin authorization middleware
func (mw *CasbinMW) Enforce() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenUserID := c.GetString(ContextUserID)
		role := domain.Role(c.GetString(ContextUserRole))
		if tokenUserID == "" || role == "" {
			response.Error(c, domain.ErrAuthUserNotFound)
			return
		}

		if h := c.GetHeader("x-user-id"); h != "" && h != tokenUserID {
			response.Error(c, domain.ErrAccessDenied.WithMessagef("Header x-user-id does not match token user ID"))
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		method := c.Request.Method

		ruled, isOwner := mw.ownership(c, route, method, tokenUserID)

		// the primary role first, so admins bypass ownership checks
		allowed, err := mw.enforcer.Enforce(role.Subject(), route, method)
		if err != nil {
			response.Error(c, fmt.Errorf("authorization check failed: %w", err))
			return
		}
		if !allowed && isOwner {
			allowed, err = mw.enforcer.Enforce(auth.OwnerSubject, route, method)
			if err != nil {
				response.Error(c, fmt.Errorf("owner authorization check failed: %w", err))
				return
			}
		}
		if !allowed {
			response.Error(c, mw.denial(ruled, route, method))
			return
		}
		c.Next()
	}
}

// ownership reports whether a rule covers the route and whether the
// caller owns the addressed record.
func (mw *CasbinMW) ownership(c *gin.Context, route, method, tokenUserID string) (ruled, owner bool) {
	for _, rule := range mw.rules {
		if rule.Path != route || rule.Method != method {
			continue
		}
		ruled = true
		if id := extractUserID(c, rule.Source, rule.ParamName); id != "" && id == tokenUserID {
			return true, true
		}
	}
	return ruled, false
}

func (mw *CasbinMW) denial(ruled bool, route, method string) error {
	if ruled {
		return domain.ErrNotOwner
	}
	if ok, err := mw.enforcer.Enforce(domain.RoleTrainer.Subject(), route, method); err == nil && ok {
		return domain.ErrTrainerRequired
	}
	return domain.ErrAdminRequired
}
