package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/infrastructure/database"
	"github.com/you/gymdesk/internal/pkg/response"
)

// RateLimitConfig defines rate limiting parameters.
type RateLimitConfig struct {
	Prefix   string
	Requests int
	Window   time.Duration
}

// RateLimit caps requests per client IP within a fixed window. Redis
// failures let the request through.
func RateLimit(client *redis.Client, cfg RateLimitConfig, log *zap.Logger) gin.HandlerFunc {
	if cfg.Prefix == "" {
		cfg.Prefix = "ratelimit"
	}
	return func(c *gin.Context) {
		if client == nil || cfg.Requests <= 0 {
			c.Next()
			return
		}
		key := cfg.Prefix + ":" + c.ClientIP()

		count, ttl, err := database.IncrWithExpire(c.Request.Context(), client, key, cfg.Window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		remaining := cfg.Requests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(ttl).Unix(), 10))

		if int(count) > cfg.Requests {
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			response.Error(c, domain.ErrRateLimited)
			return
		}
		c.Next()
	}
}
