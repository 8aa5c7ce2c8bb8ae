package app

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/config"
	httpx "github.com/you/gymdesk/internal/http"
	"github.com/you/gymdesk/internal/http/handlers"
	"github.com/you/gymdesk/internal/http/middleware"
	"github.com/you/gymdesk/internal/infrastructure/auth"
	"github.com/you/gymdesk/internal/infrastructure/database"
	"github.com/you/gymdesk/internal/infrastructure/events"
	"github.com/you/gymdesk/internal/infrastructure/notifications"
	"github.com/you/gymdesk/internal/infrastructure/repositories"
	"github.com/you/gymdesk/internal/services"
)

// Container holds all dependencies
type Container struct {
	Config *config.Config
	Log    *zap.Logger

	// Infrastructure
	DB          *gorm.DB
	RedisClient *redis.Client
	Casbin      *auth.CasbinService

	// Repositories
	UserRepo domain.UserRepository

	// Services
	Events          domain.EventPublisher
	NotificationSvc domain.NotificationService
	TokenSvc        domain.TokenService
	OTPSvc          domain.OTPService
	AuthSvc         domain.AuthService
	ProfileSvc      domain.ProfileService
	SessionSvc      domain.SessionService
	PaymentSvc      domain.PaymentService
	PolicySvc       domain.PolicyService
}

// Infra is the externally owned state a container is assembled on. A nil
// Notifier builds the Twilio dispatcher and a nil Events picks Kafka or the
// log publisher from the config.
type Infra struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Notifier domain.NotificationService
	Events   domain.EventPublisher
}

// NewContainer connects to Postgres and Redis, migrates the schema, and
// builds every service.
func NewContainer(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	db, err := database.Open(cfg.DSN, log)
	if err != nil {
		return nil, err
	}
	rdb, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	c, err := Assemble(cfg, log, Infra{DB: db, Redis: rdb})
	if err != nil {
		_ = rdb.Close()
		closeDB(db)
		return nil, err
	}
	return c, nil
}

// Assemble builds the services on already opened infrastructure.
func Assemble(cfg *config.Config, log *zap.Logger, infra Infra) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := database.AutoMigrate(infra.DB); err != nil {
		return nil, err
	}
	cas, err := auth.NewCasbinService(infra.DB, cfg.CasbinModelPath)
	if err != nil {
		return nil, err
	}
	if cfg.SeedPolicies {
		seeded, err := cas.SeedDefaults()
		if err != nil {
			return nil, err
		}
		if seeded {
			log.Info("casbin: seeded default policies")
		}
	}

	c := &Container{
		Config:      cfg,
		Log:         log,
		DB:          infra.DB,
		RedisClient: infra.Redis,
		Casbin:      cas,
		UserRepo:    repositories.NewUserRepository(infra.DB),
	}
	c.initServices(infra)
	return c, nil
}

func (c *Container) initServices(infra Infra) {
	cfg := c.Config
	loc := cfg.Location()

	c.Events = infra.Events
	if c.Events == nil {
		c.Events = events.New(cfg.KafkaBrokers, cfg.KafkaTopic, c.Log)
	}
	c.NotificationSvc = infra.Notifier
	if c.NotificationSvc == nil {
		c.NotificationSvc = notifications.NewTwilioService(notifications.TwilioConfig{
			AccountSID:  cfg.TwilioSID,
			AuthToken:   cfg.TwilioToken,
			FromNumber:  cfg.TwilioFrom,
			CountryCode: cfg.CountryCode,
		}, c.Log)
	}
	c.TokenSvc = auth.NewJWTService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTL, cfg.RefreshTTL)

	c.OTPSvc = services.NewOTPService(
		repositories.NewOTPRepository(c.DB),
		auth.NewCodeHasher(0),
		c.NotificationSvc,
		c.Events,
		c.Log,
		services.OTPConfig{
			Length:       cfg.OTP_Length,
			TTL:          cfg.OTP_TTL,
			MaxAttempts:  cfg.OTP_MaxAttempts,
			ResendWindow: cfg.OTP_ResendWindow,
		},
	)
	c.AuthSvc = services.NewAuthService(
		c.UserRepo,
		c.OTPSvc,
		c.TokenSvc,
		repositories.NewRefreshTokenStore(c.RedisClient),
		c.NotificationSvc,
		c.Events,
		c.Log,
		loc,
	)
	c.ProfileSvc = services.NewProfileService(c.UserRepo, c.Events, c.Log)
	c.SessionSvc = services.NewSessionService(repositories.NewSessionRepository(c.DB), c.UserRepo, c.Events, c.Log, loc)
	c.PaymentSvc = services.NewPaymentService(repositories.NewPaymentRepository(c.DB), c.UserRepo, c.Events, c.Log, loc)
	c.PolicySvc = services.NewPolicyService(c.Casbin.E)
}

// Router builds the HTTP surface on the container's services.
func (c *Container) Router() *gin.Engine {
	cfg := c.Config
	return httpx.BuildRouter(httpx.Deps{
		Auth:     handlers.NewAuthHandlers(c.AuthSvc, c.OTPSvc, c.ProfileSvc, cfg.OTP_TTL, c.Log),
		OTP:      handlers.NewOTPHandlers(c.AuthSvc, c.OTPSvc, cfg.OTP_TTL),
		Profile:  handlers.NewProfileHandlers(c.ProfileSvc),
		Sessions: handlers.NewSessionHandlers(c.SessionSvc),
		Payments: handlers.NewPaymentHandlers(c.PaymentSvc, cfg.Location(), c.Log),
		Policies: handlers.NewPolicyHandlers(c.PolicySvc),
		JWT:      middleware.NewAuthMW(c.AuthSvc),
		Casbin:   middleware.NewCasbinMW(services.NewCasbinEnforcerWrapper(c.Casbin.E), cfg.OwnershipRules),
		Redis:    c.RedisClient,
		OTPLimit: middleware.RateLimitConfig{
			Prefix:   "ratelimit:otp",
			Requests: cfg.OTPRateLimit,
			Window:   cfg.RateLimitWindow,
		},
		Log: c.Log,
	})
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.Events != nil {
		errs = append(errs, c.Events.Close())
	}
	if c.RedisClient != nil {
		errs = append(errs, c.RedisClient.Close())
	}
	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil {
			errs = append(errs, err)
		} else {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
