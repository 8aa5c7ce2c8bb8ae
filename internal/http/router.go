package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/you/gymdesk/internal/http/handlers"
	"github.com/you/gymdesk/internal/http/middleware"
)

// Deps is everything the router wires together.
type Deps struct {
	Auth     *handlers.AuthHandlers
	OTP      *handlers.OTPHandlers
	Profile  *handlers.ProfileHandlers
	Sessions *handlers.SessionHandlers
	Payments *handlers.PaymentHandlers
	Policies *handlers.PolicyHandlers

	JWT    *middleware.AuthMW
	Casbin middleware.CasbinMiddleware

	// Redis backs the passcode rate limit; nil disables it.
	Redis    *redis.Client
	OTPLimit middleware.RateLimitConfig
	Log      *zap.Logger
}

func BuildRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(log), middleware.Recovery(log), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", handlers.Health)

	otpLimit := middleware.RateLimit(d.Redis, d.OTPLimit, log)

	// public
	users := api.Group("/users")
	users.POST("/request-otp", otpLimit, d.Auth.RequestOTP)
	users.POST("/verify-otp", d.Auth.VerifyOTP)
	users.POST("/refresh-token", d.Auth.Refresh)
	users.POST("/logout", d.Auth.Logout)

	otp := api.Group("/otp")
	otp.POST("/send", otpLimit, d.OTP.Send)
	otp.POST("/resend", otpLimit, d.OTP.Resend)
	otp.POST("/verify", d.OTP.Verify)

	api.GET("/sessions/upcoming", d.Sessions.Upcoming)

	// authenticated; Casbin decides per route template
	v := api.Group("", d.JWT.WithJWT(), d.Casbin.Enforce())

	v.GET("/users", d.Auth.ListUsers)
	v.GET("/users/:id", d.Auth.GetUser)
	v.PUT("/users/:id/role", d.Auth.SetRole)

	v.GET("/profile/:userId", d.Profile.Get)
	v.PUT("/profile/:userId", d.Profile.Update)
	v.PUT("/profile/:userId/personal", d.Profile.UpdatePersonal)
	v.PUT("/profile/:userId/measurements", d.Profile.UpdateMeasurements)
	v.PUT("/profile/:userId/bca", d.Profile.UpdateBCA)

	v.POST("/sessions", d.Sessions.Create)
	v.GET("/sessions", d.Sessions.List)
	v.GET("/sessions/date-range", d.Sessions.ByDateRange)
	v.GET("/sessions/date/:date", d.Sessions.ByDate)
	v.GET("/sessions/user/:userId", d.Sessions.ByUser)
	v.GET("/sessions/session/:sessionId", d.Sessions.GetBySessionID)
	v.GET("/sessions/:id", d.Sessions.Get)
	v.PUT("/sessions/:id", d.Sessions.Update)
	v.DELETE("/sessions/:id", d.Sessions.Delete)
	v.POST("/sessions/:id/add-user", d.Sessions.AddUser)
	v.POST("/sessions/:id/remove-user", d.Sessions.RemoveUser)
	v.PATCH("/sessions/:id/status", d.Sessions.SetStatus)

	v.POST("/payments", d.Payments.Create)
	v.GET("/payments", d.Payments.List)
	v.GET("/payments/export", d.Payments.Export)
	v.GET("/payments/statistics", d.Payments.Statistics)
	v.GET("/payments/payment/:paymentId", d.Payments.GetByPaymentID)
	v.GET("/payments/user/:userId", d.Payments.ByUser)
	v.GET("/payments/super-user/:superUserId", d.Payments.BySuperUser)
	v.GET("/payments/:id", d.Payments.Get)
	v.PUT("/payments/:id", d.Payments.Update)
	v.DELETE("/payments/:id", d.Payments.Delete)
	v.PATCH("/payments/:id/status", d.Payments.SetStatus)
	v.POST("/payments/:id/refund", d.Payments.Refund)

	adm := v.Group("/admin")
	adm.GET("/policies", d.Policies.List)
	adm.POST("/policies", d.Policies.Add)
	adm.DELETE("/policies", d.Policies.Remove)

	return r
}
