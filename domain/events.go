package domain

import (
	"context"
	"time"
)

// EventType names a business event published to the audit stream.
type EventType string

const (
	OTPRequestedEvent         EventType = "OTP_REQUESTED"
	OTPVerifiedEvent          EventType = "OTP_VERIFIED"
	OTPFailedEvent            EventType = "OTP_VERIFICATION_FAILED"
	UserRegisteredEvent       EventType = "USER_REGISTERED"
	UserLoginEvent            EventType = "USER_LOGIN"
	UserLogoutEvent           EventType = "USER_LOGOUT"
	UserRoleChangedEvent      EventType = "USER_ROLE_CHANGED"
	SessionCreatedEvent       EventType = "SESSION_CREATED"
	SessionStatusChangedEvent EventType = "SESSION_STATUS_CHANGED"
	PaymentCreatedEvent       EventType = "PAYMENT_CREATED"
	PaymentStatusChangedEvent EventType = "PAYMENT_STATUS_CHANGED"
	PaymentRefundedEvent      EventType = "PAYMENT_REFUNDED"
)

// Event is a business event that occurred in the system.
type Event struct {
	Type      EventType      `json:"event_type"`
	UserID    uint           `json:"user_id,omitempty"`
	Subject   string         `json:"subject,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ErrorMsg  string         `json:"error_msg,omitempty"`
	Success   bool           `json:"success"`
}

// EventPublisher ships events to the audit stream. Publishing never
// affects the outcome of the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// NewEvent creates an event with common fields populated.
func NewEvent(eventType EventType, userID uint) *Event {
	return &Event{
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]any),
		Success:   true,
	}
}

// WithError marks the event as a failure.
func (e *Event) WithError(err error) *Event {
	e.Success = false
	if err != nil {
		e.ErrorMsg = err.Error()
	}
	return e
}

// WithSubject sets the entity the event is about, e.g. a payment id.
func (e *Event) WithSubject(subject string) *Event {
	e.Subject = subject
	return e
}

// WithMetadata adds metadata to the event.
func (e *Event) WithMetadata(key string, value any) *Event {
	e.Metadata[key] = value
	return e
}
