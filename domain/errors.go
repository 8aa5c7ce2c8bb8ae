package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindForbidden
	KindConflict
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindRateLimit:
		return "rate_limited"
	}
	return "internal"
}

// FieldError names one violated request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the error type returned across service boundaries. Two errors
// with the same Code match under errors.Is, so a sentinel can be copied
// with a more specific message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  []FieldError
	Details map[string]any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code != "" && t.Code == e.Code
}

// WithMessagef returns a copy carrying a formatted message.
func (e *Error) WithMessagef(format string, args ...any) *Error {
	c := *e
	c.Message = fmt.Sprintf(format, args...)
	return &c
}

// WithDetail returns a copy with an extra key surfaced in the response envelope.
func (e *Error) WithDetail(key string, value any) *Error {
	c := *e
	c.Details = make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	c.Details[key] = value
	return &c
}

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// NewValidationError reports every violated field at once.
func NewValidationError(fields ...FieldError) *Error {
	msg := "Validation failed"
	if len(fields) == 1 {
		msg = fields[0].Message
	}
	return &Error{Kind: KindValidation, Code: "validation_failed", Message: msg, Fields: fields}
}

// KindOf extracts the Kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Identity and authentication errors
var (
	ErrUserNotFound      = newError(KindNotFound, "user_not_found", "User not found")
	ErrInvalidIdentifier = newError(KindValidation, "invalid_identifier", "Please provide a valid email address or a 10-digit mobile number")
	ErrInvalidPhone      = newError(KindValidation, "invalid_phone", "Invalid phone number. Please provide a valid 10-digit mobile number")
	ErrInvalidRole       = newError(KindValidation, "invalid_role", "Role must be one of member, trainer, admin")
	ErrInvalidUserID     = newError(KindValidation, "invalid_user_id", "Invalid user ID")
)

// OTP errors
var (
	ErrOTPNotFound         = newError(KindValidation, "otp_not_found", "Invalid OTP")
	ErrOTPExpired          = newError(KindValidation, "otp_expired", "OTP expired")
	ErrOTPAttemptsExceeded = newError(KindValidation, "otp_attempts_exceeded", "Maximum attempts exceeded")
	ErrOTPCooldown         = newError(KindRateLimit, "otp_cooldown", "Please wait before requesting a new OTP")
	ErrRateLimited         = newError(KindRateLimit, "rate_limited", "Too many requests. Please try again later.")
)

// Token errors
var (
	ErrNoAuthHeader     = newError(KindAuth, "no_auth_header", "no authorization header")
	ErrNoToken          = newError(KindAuth, "no_token", "no token")
	ErrTokenExpired     = newError(KindAuth, "token_expired", "token expired")
	ErrTokenInvalid     = newError(KindAuth, "token_invalid", "invalid token")
	ErrAuthUserNotFound = newError(KindAuth, "auth_user_not_found", "user not found")
)

// Authorization errors
var (
	ErrAdminRequired   = newError(KindForbidden, "admin_required", "Admin access required")
	ErrTrainerRequired = newError(KindForbidden, "trainer_required", "Trainer or Admin access required")
	ErrNotOwner        = newError(KindForbidden, "not_owner", "You can only access your own data")
	ErrAccessDenied    = newError(KindForbidden, "access_denied", "Access denied")
)

// Session errors
var (
	ErrSessionNotFound           = newError(KindNotFound, "session_not_found", "Session not found")
	ErrSessionFull               = newError(KindConflict, "session_full", "Session is full")
	ErrInvalidCapacity           = newError(KindValidation, "invalid_capacity", "Person count must be 1 or 2")
	ErrCapacityBelowParticipants = newError(KindConflict, "capacity_below_participants", "Cannot reduce person count below current number of users")
	ErrTooManyParticipants       = newError(KindConflict, "too_many_participants", "Number of users cannot exceed person count")
	ErrInvalidSessionStatus      = newError(KindValidation, "invalid_session_status", "Invalid status. Must be one of: scheduled, in_progress, completed, cancelled")
	ErrInvalidStatusTransition   = newError(KindConflict, "invalid_status_transition", "Invalid session status transition")
	ErrInvalidTrainer            = newError(KindValidation, "invalid_trainer", "Invalid trainer ID or user is not a trainer")
	ErrParticipantNotFound       = newError(KindNotFound, "participant_not_found", "One or more users not found")
)

// Payment errors
var (
	ErrPaymentNotFound      = newError(KindNotFound, "payment_not_found", "Payment not found")
	ErrSuperUserNotFound    = newError(KindNotFound, "super_user_not_found", "Super user not found")
	ErrInvalidReferrer      = newError(KindConflict, "invalid_referrer", "User cannot be their own super user (referrer)")
	ErrPaymentLocked        = newError(KindConflict, "payment_locked", "Cannot modify a completed or refunded payment")
	ErrRefundNotAllowed     = newError(KindConflict, "refund_not_allowed", "Only completed payments can be refunded")
	ErrInvalidPaymentStatus = newError(KindValidation, "invalid_payment_status", "Invalid payment status")
)

// ErrInternal is what callers see for anything unexpected.
var ErrInternal = newError(KindInternal, "internal", "Internal server error")
