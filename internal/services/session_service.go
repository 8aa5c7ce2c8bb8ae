package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/metrics"
	"github.com/you/gymdesk/internal/pkg/ulid"
)

const (
	DateLayout         = "2006-01-02"
	TimeLayout         = "15:04"
	timeLayoutSeconds  = "15:04:05"
	defaultUpcomingMax = 10
)

// SessionServiceImpl implements domain.SessionService
type SessionServiceImpl struct {
	sessions domain.SessionRepository
	users    domain.UserRepository
	events   domain.EventPublisher
	log      *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewSessionService creates a new session service. "Today" is evaluated in loc.
func NewSessionService(sessions domain.SessionRepository, users domain.UserRepository,
	events domain.EventPublisher, log *zap.Logger, loc *time.Location) *SessionServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &SessionServiceImpl{
		sessions: sessions,
		users:    users,
		events:   events,
		log:      log.Named("sessions"),
		location: loc,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *SessionServiceImpl) WithClock(now func() time.Time) *SessionServiceImpl {
	s.now = now
	return s
}

// validClock accepts HH:MM and HH:MM:SS.
func validClock(v string) bool {
	if _, err := time.Parse(TimeLayout, v); err == nil {
		return true
	}
	_, err := time.Parse(timeLayoutSeconds, v)
	return err == nil
}

func checkSchedule(date, start, end string) error {
	var fields []domain.FieldError
	if _, err := time.Parse(DateLayout, date); err != nil {
		fields = append(fields, domain.FieldError{Field: "date", Message: "Date must be in YYYY-MM-DD format"})
	}
	if !validClock(start) {
		fields = append(fields, domain.FieldError{Field: "startingTime", Message: "Starting time must be in HH:MM format"})
	}
	if end != "" {
		if !validClock(end) {
			fields = append(fields, domain.FieldError{Field: "endTime", Message: "End time must be in HH:MM format"})
		}
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

func (s *SessionServiceImpl) checkUsersExist(ctx context.Context, ids []uint) error {
	missing, err := s.users.FindMissing(ctx, ids)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return domain.ErrParticipantNotFound.WithMessagef("User not found with ID: %d", missing[0])
	}
	return nil
}

func (s *SessionServiceImpl) checkTrainer(ctx context.Context, id uint) error {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidTrainer
		}
		return err
	}
	if !u.Role.IsTrainer() {
		return domain.ErrInvalidTrainer
	}
	return nil
}

// Create implements domain.SessionService
func (s *SessionServiceImpl) Create(ctx context.Context, in domain.NewSession) (*domain.Session, error) {
	if !domain.ValidCapacity(in.PersonCount) {
		return nil, domain.ErrInvalidCapacity
	}
	if err := checkSchedule(in.Date, in.StartingTime, in.EndTime); err != nil {
		return nil, err
	}

	session := &domain.Session{
		SessionID:    ulid.SessionID(s.now()),
		PersonCount:  in.PersonCount,
		StartingTime: in.StartingTime,
		EndTime:      in.EndTime,
		Date:         in.Date,
		Status:       domain.SessionScheduled,
		TrainerID:    in.TrainerID,
		Notes:        in.Notes,
	}
	if err := session.SetParticipants(in.Users); err != nil {
		return nil, domain.ErrTooManyParticipants.WithMessagef(
			"Cannot add more than %d user(s) to this session", in.PersonCount)
	}
	if err := s.checkUsersExist(ctx, session.Users); err != nil {
		return nil, err
	}
	if in.TrainerID != nil {
		if err := s.checkTrainer(ctx, *in.TrainerID); err != nil {
			return nil, err
		}
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	metrics.SessionsCreatedTotal.Inc()
	publish(ctx, s.events, s.log, domain.NewEvent(domain.SessionCreatedEvent, 0).
		WithSubject(session.SessionID).
		WithMetadata("date", session.Date))
	return session, nil
}

func (s *SessionServiceImpl) Get(ctx context.Context, id uint) (*domain.Session, error) {
	return s.sessions.FindByID(ctx, id)
}

func (s *SessionServiceImpl) GetBySessionID(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.sessions.FindBySessionID(ctx, sessionID)
}

func (s *SessionServiceImpl) List(ctx context.Context, filter domain.SessionFilter) ([]*domain.Session, error) {
	if filter.Upcoming {
		filter.Date = ""
		filter.FromDate = s.today()
		filter.Statuses = []domain.SessionStatus{domain.SessionScheduled, domain.SessionInProgress}
	}
	return s.sessions.List(ctx, filter)
}

func (s *SessionServiceImpl) today() string {
	return s.now().In(s.location).Format(DateLayout)
}

// ListUpcoming returns open sessions from today on, soonest first.
func (s *SessionServiceImpl) ListUpcoming(ctx context.Context, limit int) ([]*domain.Session, error) {
	if limit <= 0 {
		limit = defaultUpcomingMax
	}
	return s.sessions.List(ctx, domain.SessionFilter{
		FromDate: s.today(),
		Statuses: []domain.SessionStatus{domain.SessionScheduled, domain.SessionInProgress},
		Limit:    limit,
	})
}

// Update implements domain.SessionService
func (s *SessionServiceImpl) Update(ctx context.Context, id uint, patch domain.SessionPatch) (*domain.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	capacity := session.PersonCount
	if patch.PersonCount != nil {
		if !domain.ValidCapacity(*patch.PersonCount) {
			return nil, domain.ErrInvalidCapacity
		}
		capacity = *patch.PersonCount
	}
	if patch.SetUsers {
		// the replacement list is checked against the new capacity
		trial := *session
		trial.PersonCount = capacity
		if err := trial.SetParticipants(patch.Users); err != nil {
			return nil, domain.ErrTooManyParticipants.WithMessagef(
				"Cannot add more than %d user(s) to this session", capacity)
		}
		if err := s.checkUsersExist(ctx, trial.Users); err != nil {
			return nil, err
		}
		session.Users = trial.Users
	}
	if patch.PersonCount != nil {
		if err := session.SetCapacity(capacity); err != nil {
			if errors.Is(err, domain.ErrCapacityBelowParticipants) {
				return nil, domain.ErrCapacityBelowParticipants.WithMessagef(
					"Cannot reduce person count. Session already has %d user(s)", len(session.Users))
			}
			return nil, err
		}
	}
	if patch.Date != nil {
		session.Date = *patch.Date
	}
	if patch.StartingTime != nil {
		session.StartingTime = *patch.StartingTime
	}
	if patch.EndTime != nil {
		session.EndTime = *patch.EndTime
	}
	if err := checkSchedule(session.Date, session.StartingTime, session.EndTime); err != nil {
		return nil, err
	}
	if patch.TrainerID != nil {
		if err := s.checkTrainer(ctx, *patch.TrainerID); err != nil {
			return nil, err
		}
		session.TrainerID = patch.TrainerID
	}
	if patch.Notes != nil {
		session.Notes = *patch.Notes
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AddParticipant implements domain.SessionService
func (s *SessionServiceImpl) AddParticipant(ctx context.Context, id, userID uint) (*domain.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	if session.HasParticipant(userID) {
		return session, nil
	}
	if err := session.AddParticipant(userID); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveParticipant implements domain.SessionService. Removing a
// non-participant changes nothing.
func (s *SessionServiceImpl) RemoveParticipant(ctx context.Context, id, userID uint) (*domain.Session, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.RemoveParticipant(userID) {
		return session, nil
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetStatus implements domain.SessionService
func (s *SessionServiceImpl) SetStatus(ctx context.Context, id uint, status domain.SessionStatus) (*domain.Session, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidSessionStatus
	}
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := session.Status
	if err := session.TransitionTo(status); err != nil {
		return nil, err
	}
	if previous == session.Status {
		return session, nil
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.log, domain.NewEvent(domain.SessionStatusChangedEvent, 0).
		WithSubject(session.SessionID).
		WithMetadata("from", string(previous)).
		WithMetadata("to", string(status)))
	return session, nil
}

func (s *SessionServiceImpl) Delete(ctx context.Context, id uint) error {
	return s.sessions.Delete(ctx, id)
}

var _ domain.SessionService = (*SessionServiceImpl)(nil)
