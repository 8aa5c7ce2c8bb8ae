package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

// AuthMiddleware resolves the bearer token to a live user and stores it in
// the context. A bare token without the Bearer scheme is accepted too.
func AuthMiddleware(auth domain.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, domain.ErrNoAuthHeader)
			return
		}

		token := header
		if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			token = rest
		} else if strings.EqualFold(header, "Bearer") {
			token = ""
		}
		token = strings.TrimSpace(token)
		if token == "" {
			response.Error(c, domain.ErrNoToken)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		// user_id is a string so it compares directly with path parameters
		c.Set(ContextUserID, strconv.FormatUint(uint64(user.ID), 10))
		c.Set(ContextUserRole, string(user.Role))
		c.Set(ContextUser, user)
		c.Next()
	}
}
