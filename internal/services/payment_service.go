package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/metrics"
	"github.com/you/gymdesk/internal/pkg/ulid"
)

// PaymentServiceImpl implements domain.PaymentService
type PaymentServiceImpl struct {
	payments domain.PaymentRepository
	users    domain.UserRepository
	events   domain.EventPublisher
	log      *zap.Logger
	location *time.Location
	now      func() time.Time
}

// NewPaymentService creates a new payment service. Payment dates default to
// the current day in loc.
func NewPaymentService(payments domain.PaymentRepository, users domain.UserRepository,
	events domain.EventPublisher, log *zap.Logger, loc *time.Location) *PaymentServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PaymentServiceImpl{
		payments: payments,
		users:    users,
		events:   events,
		log:      log.Named("payments"),
		location: loc,
		now:      time.Now,
	}
}

// WithClock replaces the time source.
func (s *PaymentServiceImpl) WithClock(now func() time.Time) *PaymentServiceImpl {
	s.now = now
	return s
}

// dateOnly keeps the calendar day of t, as seen in the service location.
func (s *PaymentServiceImpl) dateOnly(t time.Time) time.Time {
	y, m, d := t.In(s.location).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayBounds maps an inclusive range of local days onto stored payment dates.
func (s *PaymentServiceImpl) dayBounds(from, to *time.Time) (*time.Time, *time.Time) {
	day := func(t *time.Time) *time.Time {
		if t == nil {
			return nil
		}
		d := s.dateOnly(*t)
		return &d
	}
	return day(from), day(to)
}

func checkAmounts(p *domain.Payment) error {
	var fields []domain.FieldError
	if p.Amount < 0 {
		fields = append(fields, domain.FieldError{Field: "amount", Message: "Amount must be a non-negative number"})
	}
	if p.SessionCount < 0 {
		fields = append(fields, domain.FieldError{Field: "sessionCount", Message: "Session count must be a non-negative integer"})
	}
	if p.GST < 0 {
		fields = append(fields, domain.FieldError{Field: "gst", Message: "GST must be a non-negative number"})
	}
	if p.Discount < 0 {
		fields = append(fields, domain.FieldError{Field: "discount", Message: "Discount must be a non-negative number"})
	}
	if !p.PackageType.Valid() {
		fields = append(fields, domain.FieldError{Field: "packageType", Message: "Package type must be one of basic, standard, premium, custom"})
	}
	if !p.PaymentMethod.Valid() {
		fields = append(fields, domain.FieldError{Field: "paymentMethod", Message: "Payment method must be one of cash, card, upi, netbanking, wallet, other"})
	}
	if len(p.Currency) != 3 {
		fields = append(fields, domain.FieldError{Field: "currency", Message: "Currency must be a 3-letter code"})
	}
	if len(fields) > 0 {
		return domain.NewValidationError(fields...)
	}
	return nil
}

func (s *PaymentServiceImpl) checkParties(ctx context.Context, p *domain.Payment) error {
	if _, err := s.users.FindByID(ctx, p.UserID); err != nil {
		return err
	}
	if p.SuperUserID != nil {
		if _, err := s.users.FindByID(ctx, *p.SuperUserID); err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return domain.ErrSuperUserNotFound
			}
			return err
		}
	}
	return nil
}

// Create implements domain.PaymentService. New payments start pending and
// get an invoice number only once completed.
func (s *PaymentServiceImpl) Create(ctx context.Context, in domain.NewPayment) (*domain.Payment, error) {
	now := s.now()
	p := &domain.Payment{
		PaymentID:            ulid.PaymentID(now),
		UserID:               in.UserID,
		SuperUserID:          in.SuperUserID,
		Amount:               in.Amount,
		Date:                 s.dateOnly(now),
		PackageType:          in.PackageType,
		SessionCount:         in.SessionCount,
		PaymentMethod:        in.PaymentMethod,
		PaymentStatus:        domain.PaymentPending,
		TransactionReference: in.TransactionReference,
		Currency:             strings.ToUpper(in.Currency),
		GST:                  in.GST,
		Discount:             in.Discount,
		Notes:                in.Notes,
	}
	if in.Date != nil {
		p.Date = s.dateOnly(*in.Date)
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = domain.MethodCash
	}
	if p.Currency == "" {
		p.Currency = domain.DefaultCurrency
	}

	if err := checkAmounts(p); err != nil {
		return nil, err
	}
	if err := p.CheckReferrer(); err != nil {
		return nil, err
	}
	if err := s.checkParties(ctx, p); err != nil {
		return nil, err
	}
	p.ComputeFinalAmount()

	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	publish(ctx, s.events, s.log, domain.NewEvent(domain.PaymentCreatedEvent, p.UserID).
		WithSubject(p.PaymentID).
		WithMetadata("final_amount", p.FinalAmount))
	return p, nil
}

func (s *PaymentServiceImpl) Get(ctx context.Context, id uint) (*domain.Payment, error) {
	return s.payments.FindByID(ctx, id)
}

func (s *PaymentServiceImpl) GetByPaymentID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return s.payments.FindByPaymentID(ctx, paymentID)
}

func (s *PaymentServiceImpl) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, error) {
	filter.From, filter.To = s.dayBounds(filter.From, filter.To)
	return s.payments.List(ctx, filter)
}

// ListForPayer returns a user's payments and their completed totals.
func (s *PaymentServiceImpl) ListForPayer(ctx context.Context, userID uint) ([]*domain.Payment, *domain.PayerSummary, error) {
	list, err := s.payments.List(ctx, domain.PaymentFilter{UserID: &userID})
	if err != nil {
		return nil, nil, err
	}
	summary := &domain.PayerSummary{TotalPayments: len(list)}
	for _, p := range list {
		if p.PaymentStatus == domain.PaymentCompleted {
			summary.TotalSpent += p.FinalAmount
		}
	}
	return list, summary, nil
}

// ListForReferrer returns the payments credited to a super user with the
// commission basis over completed ones.
func (s *PaymentServiceImpl) ListForReferrer(ctx context.Context, superUserID uint) ([]*domain.Payment, *domain.ReferrerSummary, error) {
	list, err := s.payments.List(ctx, domain.PaymentFilter{SuperUserID: &superUserID})
	if err != nil {
		return nil, nil, err
	}
	summary := &domain.ReferrerSummary{TotalReferrals: len(list)}
	for _, p := range list {
		if p.PaymentStatus == domain.PaymentCompleted {
			summary.TotalAmount += p.FinalAmount
			summary.TotalSessions += p.SessionCount
		}
	}
	return list, summary, nil
}

// Update implements domain.PaymentService
func (s *PaymentServiceImpl) Update(ctx context.Context, id uint, patch domain.PaymentPatch) (*domain.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Date != nil {
		d := s.dateOnly(*patch.Date)
		patch.Date = &d
	}
	if err := p.Apply(patch); err != nil {
		return nil, err
	}
	if err := checkAmounts(p); err != nil {
		return nil, err
	}
	if patch.UserID != nil || patch.SuperUserID != nil {
		if err := s.checkParties(ctx, p); err != nil {
			return nil, err
		}
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetStatus implements domain.PaymentService
func (s *PaymentServiceImpl) SetStatus(ctx context.Context, id uint, status domain.PaymentStatus, reference *string) (*domain.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.PaymentStatus
	if err := p.SetStatus(status); err != nil {
		return nil, err
	}
	if reference != nil {
		p.TransactionReference = *reference
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}

	if status == domain.PaymentCompleted && previous != domain.PaymentCompleted {
		metrics.PaymentsCompletedTotal.Inc()
		s.log.Info("payment completed", zap.String("payment_id", p.PaymentID),
			zap.String("invoice", p.InvoiceNumber), zap.Float64("final_amount", p.FinalAmount))
	}
	publish(ctx, s.events, s.log, domain.NewEvent(domain.PaymentStatusChangedEvent, p.UserID).
		WithSubject(p.PaymentID).
		WithMetadata("from", string(previous)).
		WithMetadata("to", string(status)))
	return p, nil
}

// Refund implements domain.PaymentService
func (s *PaymentServiceImpl) Refund(ctx context.Context, id uint, reason string) (*domain.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Refund(reason); err != nil {
		return nil, err
	}
	if err := s.payments.Update(ctx, p); err != nil {
		return nil, err
	}
	metrics.PaymentsRefundedTotal.Inc()
	s.log.Info("payment refunded", zap.String("payment_id", p.PaymentID), zap.Float64("final_amount", p.FinalAmount))
	publish(ctx, s.events, s.log, domain.NewEvent(domain.PaymentRefundedEvent, p.UserID).
		WithSubject(p.PaymentID).
		WithMetadata("reason", reason))
	return p, nil
}

// Delete implements domain.PaymentService. Settled payments are kept.
func (s *PaymentServiceImpl) Delete(ctx context.Context, id uint) error {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p.PaymentStatus.Locked() {
		return domain.ErrPaymentLocked.WithMessagef("Cannot delete a %s payment", p.PaymentStatus)
	}
	return s.payments.Delete(ctx, id)
}

func (s *PaymentServiceImpl) Statistics(ctx context.Context, from, to *time.Time) (*domain.PaymentStatistics, error) {
	from, to = s.dayBounds(from, to)
	return s.payments.Statistics(ctx, from, to)
}

var _ domain.PaymentService = (*PaymentServiceImpl)(nil)
