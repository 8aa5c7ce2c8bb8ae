package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
)

// ProfileServiceImpl implements domain.ProfileService
type ProfileServiceImpl struct {
	users  domain.UserRepository
	events domain.EventPublisher
	log    *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(users domain.UserRepository, events domain.EventPublisher, log *zap.Logger) *ProfileServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileServiceImpl{users: users, events: events, log: log.Named("profile")}
}

func (s *ProfileServiceImpl) Get(ctx context.Context, userID uint) (*domain.User, error) {
	return s.users.FindByID(ctx, userID)
}

func (s *ProfileServiceImpl) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *ProfileServiceImpl) UpdatePersonal(ctx context.Context, userID uint, p domain.PersonalDetails) (*domain.User, error) {
	return s.UpdateProfile(ctx, userID, domain.ProfileUpdate{PersonalDetails: &p})
}

func (s *ProfileServiceImpl) UpdateMeasurements(ctx context.Context, userID uint, m domain.Measurements) (*domain.User, error) {
	return s.UpdateProfile(ctx, userID, domain.ProfileUpdate{Measurements: &m})
}

func (s *ProfileServiceImpl) UpdateBCA(ctx context.Context, userID uint, b domain.BCA) (*domain.User, error) {
	return s.UpdateProfile(ctx, userID, domain.ProfileUpdate{BCA: &b})
}

// UpdateProfile applies every supplied section at once. Nothing is written
// if any number is negative.
func (s *ProfileServiceImpl) UpdateProfile(ctx context.Context, userID uint, p domain.ProfileUpdate) (*domain.User, error) {
	fields := invalidFields(p)
	if pd := p.PersonalDetails; pd != nil && pd.Name != nil && strings.TrimSpace(*pd.Name) == "" {
		fields = append(fields, domain.FieldError{Field: "personalDetails.name", Message: "Name cannot be empty"})
	}
	if len(fields) > 0 {
		return nil, domain.NewValidationError(fields...)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.PersonalDetails != nil {
		user.ApplyPersonal(*p.PersonalDetails)
	}
	if p.Measurements != nil {
		user.Measurements.Apply(*p.Measurements)
	}
	if p.BCA != nil {
		user.BCA.Apply(*p.BCA)
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// SetRole assigns a role. Used by administrators.
func (s *ProfileServiceImpl) SetRole(ctx context.Context, userID uint, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.Role
	if previous == role {
		return user, nil
	}
	user.Role = role
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	s.log.Info("role changed", zap.Uint("user_id", userID),
		zap.String("from", string(previous)), zap.String("to", string(role)))
	publish(ctx, s.events, s.log, domain.NewEvent(domain.UserRoleChangedEvent, userID).
		WithMetadata("from", string(previous)).
		WithMetadata("to", string(role)))
	return user, nil
}

// profileValidator reports fields by json name, as the request bodies spell them.
var profileValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// invalidFields lists every section field that breaks its validate rule.
func invalidFields(p domain.ProfileUpdate) []domain.FieldError {
	err := profileValidator.Struct(p)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		msg := fe.Field() + " is invalid"
		if fe.Tag() == "gte" {
			msg = fe.Field() + " must be a non-negative number"
		}
		out = append(out, domain.FieldError{Field: path, Message: msg})
	}
	return out
}

var _ domain.ProfileService = (*ProfileServiceImpl)(nil)
