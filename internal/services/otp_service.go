package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/metrics"
)

// OTPServiceImpl implements domain.OTPService on top of the passcode table.
type OTPServiceImpl struct {
	repo     domain.OTPRepository
	hasher   domain.CodeHasher
	notifier domain.NotificationService
	events   domain.EventPublisher
	log      *zap.Logger
	config   OTPConfig
	now      func() time.Time
}

type OTPConfig struct {
	Length       int
	TTL          time.Duration
	MaxAttempts  int
	ResendWindow time.Duration
}

// NewOTPService creates a new passcode service
func NewOTPService(repo domain.OTPRepository, hasher domain.CodeHasher, notifier domain.NotificationService,
	events domain.EventPublisher, log *zap.Logger, config OTPConfig) *OTPServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &OTPServiceImpl{
		repo:     repo,
		hasher:   hasher,
		notifier: notifier,
		events:   events,
		log:      log.Named("otp"),
		config:   config,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *OTPServiceImpl) WithClock(now func() time.Time) *OTPServiceImpl {
	s.now = now
	return s
}

// Issue implements domain.OTPService. Any earlier pending code for the
// identifier is discarded.
func (s *OTPServiceImpl) Issue(ctx context.Context, to domain.Identifier) (*domain.OTPIssue, error) {
	now := s.now()

	if err := s.checkCooldown(ctx, to, now); err != nil {
		return nil, err
	}

	code, err := s.generateSecureCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate OTP code: %w", err)
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return nil, fmt.Errorf("failed to hash OTP code: %w", err)
	}

	if err := s.repo.DeleteUnverified(ctx, to.Value); err != nil {
		return nil, fmt.Errorf("failed to clear pending OTPs: %w", err)
	}
	record := &domain.OTP{
		Identifier: to.Value,
		CodeHash:   hash,
		ExpiresAt:  now.Add(s.config.TTL),
		CreatedAt:  now,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store OTP: %w", err)
	}
	metrics.OTPIssuedTotal.Inc()

	issue := &domain.OTPIssue{Identifier: to, ExpiresAt: record.ExpiresAt, Delivered: true}
	if err := s.notifier.SendOTP(ctx, to, code, s.config.TTL); err != nil {
		issue.Delivered = false
		s.log.Warn("otp delivery failed", zap.String("kind", string(to.Kind)), zap.Error(err))
	}

	publish(ctx, s.events, s.log, domain.NewEvent(domain.OTPRequestedEvent, 0).
		WithSubject(string(to.Kind)).
		WithMetadata("delivered", issue.Delivered))
	return issue, nil
}

func (s *OTPServiceImpl) checkCooldown(ctx context.Context, to domain.Identifier, now time.Time) error {
	if s.config.ResendWindow <= 0 {
		return nil
	}
	last, err := s.repo.FindLatestUnverified(ctx, to.Value)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			return nil
		}
		return err
	}
	elapsed := now.Sub(last.CreatedAt)
	if elapsed >= s.config.ResendWindow {
		return nil
	}
	wait := int(s.config.ResendWindow/time.Minute) - int(elapsed/time.Minute)
	if wait < 1 {
		wait = 1
	}
	return domain.ErrOTPCooldown.
		WithMessagef("Please wait %d minute(s) before requesting a new OTP", wait).
		WithDetail("retryAfterMinutes", wait)
}

// Verify implements domain.OTPService. A wrong code is reported exactly like
// a missing one and counts against the attempt limit.
func (s *OTPServiceImpl) Verify(ctx context.Context, to domain.Identifier, code string) error {
	record, err := s.repo.FindLatestUnverified(ctx, to.Value)
	if err != nil {
		if errors.Is(err, domain.ErrOTPNotFound) {
			s.recordFailure(ctx, to, err)
		}
		return err
	}

	if !s.hasher.Verify(record.CodeHash, code) {
		record.Attempts++
		if err := s.repo.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to record OTP attempt: %w", err)
		}
		s.recordFailure(ctx, to, domain.ErrOTPNotFound)
		return domain.ErrOTPNotFound
	}
	if record.Attempts >= s.config.MaxAttempts {
		s.recordFailure(ctx, to, domain.ErrOTPAttemptsExceeded)
		return domain.ErrOTPAttemptsExceeded
	}
	if record.Expired(s.now()) {
		s.recordFailure(ctx, to, domain.ErrOTPExpired)
		return domain.ErrOTPExpired
	}

	record.IsVerified = true
	if err := s.repo.Update(ctx, record); err != nil {
		return fmt.Errorf("failed to mark OTP verified: %w", err)
	}
	metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	publish(ctx, s.events, s.log, domain.NewEvent(domain.OTPVerifiedEvent, 0).WithSubject(string(to.Kind)))
	return nil
}

func (s *OTPServiceImpl) recordFailure(ctx context.Context, to domain.Identifier, reason error) {
	metrics.OTPVerificationsTotal.WithLabelValues(metrics.ResultFailure).Inc()
	publish(ctx, s.events, s.log, domain.NewEvent(domain.OTPFailedEvent, 0).
		WithSubject(string(to.Kind)).
		WithError(reason))
}

// generateSecureCode returns a code of the configured length without a
// leading zero.
func (s *OTPServiceImpl) generateSecureCode() (string, error) {
	length := s.config.Length
	if length <= 0 {
		length = 4
	}
	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Sub(new(big.Int).Mul(low, big.NewInt(10)), low)

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("failed to generate random number: %w", err)
	}
	return n.Add(n, low).String(), nil
}

var _ domain.OTPService = (*OTPServiceImpl)(nil)
