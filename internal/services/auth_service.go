package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
)

// AuthServiceImpl implements domain.AuthService
type AuthServiceImpl struct {
	userRepo  domain.UserRepository
	otpSvc    domain.OTPService
	tokenSvc  domain.TokenService
	refreshes domain.RefreshTokenStore
	notifier  domain.NotificationService
	events    domain.EventPublisher
	log       *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewAuthService creates a new auth service. Login alerts are stamped in loc.
func NewAuthService(
	userRepo domain.UserRepository,
	otpSvc domain.OTPService,
	tokenSvc domain.TokenService,
	refreshes domain.RefreshTokenStore,
	notifier domain.NotificationService,
	events domain.EventPublisher,
	log *zap.Logger,
	loc *time.Location,
) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AuthServiceImpl{
		userRepo:  userRepo,
		otpSvc:    otpSvc,
		tokenSvc:  tokenSvc,
		refreshes: refreshes,
		notifier:  notifier,
		events:    events,
		log:       log.Named("auth"),
		location:  loc,
		now:       time.Now,
	}
}

// Login implements domain.AuthService. A verified identifier with no account
// gets a member account on the spot.
func (s *AuthServiceImpl) Login(ctx context.Context, to domain.Identifier, code string, opts domain.LoginOptions) (*domain.AuthResult, error) {
	if err := s.otpSvc.Verify(ctx, to, code); err != nil {
		return nil, err
	}

	user, isNew, err := s.findOrCreate(ctx, to)
	if err != nil {
		return nil, err
	}

	if opts.NotifyWhatsApp && to.Kind == domain.IdentifierPhone {
		s.notifyLogin(ctx, to, user, isNew)
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	result.IsNewUser = isNew

	evType := domain.UserLoginEvent
	if isNew {
		evType = domain.UserRegisteredEvent
	}
	publish(ctx, s.events, s.log, domain.NewEvent(evType, user.ID).WithSubject(string(to.Kind)))
	s.log.Info("user logged in", zap.Uint("user_id", user.ID), zap.Bool("new_user", isNew))
	return result, nil
}

func (s *AuthServiceImpl) findUser(ctx context.Context, to domain.Identifier) (*domain.User, error) {
	if to.Kind == domain.IdentifierEmail {
		return s.userRepo.FindByEmail(ctx, to.Value)
	}
	return s.userRepo.FindByPhone(ctx, to.Value)
}

func (s *AuthServiceImpl) findOrCreate(ctx context.Context, to domain.Identifier) (*domain.User, bool, error) {
	user, err := s.findUser(ctx, to)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &domain.User{Role: domain.RoleMember, Name: defaultName(to)}
	if to.Kind == domain.IdentifierEmail {
		user.Email = to.Value
	} else {
		user.Phone = to.Value
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// a concurrent login for the same identifier may have won the insert
		if existing, findErr := s.findUser(ctx, to); findErr == nil {
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}

// defaultName is the local part of an email, or User_<last 4 digits>.
func defaultName(to domain.Identifier) string {
	if to.Kind == domain.IdentifierEmail {
		local, _, _ := strings.Cut(to.Value, "@")
		return local
	}
	v := to.Value
	if len(v) > 4 {
		v = v[len(v)-4:]
	}
	return "User_" + v
}

func (s *AuthServiceImpl) notifyLogin(ctx context.Context, to domain.Identifier, user *domain.User, isNew bool) {
	var err error
	kind := "login_alert"
	if isNew {
		kind = "welcome"
		err = s.notifier.SendWelcome(ctx, to, user.Name)
	} else {
		err = s.notifier.SendLoginAlert(ctx, to, user.Name, s.now().In(s.location))
	}
	if err != nil {
		s.log.Warn("whatsapp notification failed", zap.String("kind", kind), zap.Uint("user_id", user.ID), zap.Error(err))
	}
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	access, err := s.tokenSvc.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, jti, err := s.tokenSvc.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	if err := s.refreshes.Save(ctx, jti, user.ID, s.tokenSvc.RefreshTTL()); err != nil {
		return nil, err
	}
	return &domain.AuthResult{User: user, AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh implements domain.AuthService. The presented refresh token is
// consumed and replaced.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	owner, err := s.refreshes.Consume(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if owner != claims.UserID {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrAuthUserNotFound
		}
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout implements domain.AuthService
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokenSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := s.refreshes.Revoke(ctx, claims.ID); err != nil {
		return err
	}
	publish(ctx, s.events, s.log, domain.NewEvent(domain.UserLogoutEvent, claims.UserID))
	return nil
}

// Authenticate implements domain.AuthService
func (s *AuthServiceImpl) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokenSvc.ValidateAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrAuthUserNotFound
		}
		return nil, err
	}
	return user, nil
}

var _ domain.AuthService = (*AuthServiceImpl)(nil)
