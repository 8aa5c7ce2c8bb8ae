package domain

import (
	"context"
	"time"
)

// UserRepository defines user data access operations
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByPhone(ctx context.Context, phone string) (*User, error)
	FindByID(ctx context.Context, id uint) (*User, error)
	// FindMissing returns the ids among ids that have no user record.
	FindMissing(ctx context.Context, ids []uint) ([]uint, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, user *User) error
}

// OTPRepository defines passcode data access operations
type OTPRepository interface {
	Create(ctx context.Context, otp *OTP) error
	// FindLatestUnverified returns ErrOTPNotFound when nothing is pending.
	FindLatestUnverified(ctx context.Context, identifier string) (*OTP, error)
	DeleteUnverified(ctx context.Context, identifier string) error
	Update(ctx context.Context, otp *OTP) error
}

// SessionFilter narrows session listings. Zero values match everything.
type SessionFilter struct {
	Date      string
	FromDate  string
	ToDate    string
	Statuses  []SessionStatus
	TrainerID *uint
	UserID    *uint
	// Upcoming keeps open sessions dated today or later.
	Upcoming bool
	Limit    int
}

// SessionRepository defines training session data access operations
type SessionRepository interface {
	Create(ctx context.Context, session *Session) error
	FindByID(ctx context.Context, id uint) (*Session, error)
	FindBySessionID(ctx context.Context, sessionID string) (*Session, error)
	List(ctx context.Context, filter SessionFilter) ([]*Session, error)
	Update(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id uint) error
}

// PaymentRepository defines payment data access operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	FindByID(ctx context.Context, id uint) (*Payment, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	Delete(ctx context.Context, id uint) error
	Statistics(ctx context.Context, from, to *time.Time) (*PaymentStatistics, error)
}

// RefreshTokenStore tracks refresh tokens that may still be redeemed.
type RefreshTokenStore interface {
	Save(ctx context.Context, jti string, userID uint, ttl time.Duration) error
	// Consume deletes the token and returns its owner. ErrTokenInvalid if unknown.
	Consume(ctx context.Context, jti string) (uint, error)
	Revoke(ctx context.Context, jti string) error
}

// TokenService defines token operations
type TokenService interface {
	GenerateAccessToken(user *User) (string, error)
	GenerateRefreshToken(user *User) (token string, jti string, err error)
	ValidateAccessToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (*TokenClaims, error)
	RefreshTTL() time.Duration
}

// CodeHasher protects passcodes at rest.
type CodeHasher interface {
	Hash(code string) (string, error)
	Verify(hash, code string) bool
}

// NotificationService delivers messages out of band. Errors are reported
// to the caller, which decides whether they matter.
type NotificationService interface {
	SendOTP(ctx context.Context, to Identifier, code string, ttl time.Duration) error
	SendWelcome(ctx context.Context, to Identifier, name string) error
	SendLoginAlert(ctx context.Context, to Identifier, name string, at time.Time) error
}

// OTPService issues and checks one-time passcodes.
type OTPService interface {
	Issue(ctx context.Context, to Identifier) (*OTPIssue, error)
	Verify(ctx context.Context, to Identifier, code string) error
}

// LoginOptions tweaks the side effects of a passcode login.
type LoginOptions struct {
	// NotifyWhatsApp sends a welcome or login alert to phone identifiers.
	NotifyWhatsApp bool
}

// AuthService defines authentication business logic
type AuthService interface {
	Login(ctx context.Context, to Identifier, code string, opts LoginOptions) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, refreshToken string) error
	// Authenticate resolves an access token to a live user.
	Authenticate(ctx context.Context, accessToken string) (*User, error)
}

// ProfileService manages user records and their body data.
type ProfileService interface {
	Get(ctx context.Context, userID uint) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdatePersonal(ctx context.Context, userID uint, p PersonalDetails) (*User, error)
	UpdateMeasurements(ctx context.Context, userID uint, m Measurements) (*User, error)
	UpdateBCA(ctx context.Context, userID uint, b BCA) (*User, error)
	UpdateProfile(ctx context.Context, userID uint, p ProfileUpdate) (*User, error)
	SetRole(ctx context.Context, userID uint, role Role) (*User, error)
}

// NewSession is the input for scheduling a session.
type NewSession struct {
	PersonCount  int
	StartingTime string
	EndTime      string
	Date         string
	Users        []uint
	TrainerID    *uint
	Notes        string
}

// SessionPatch is a partial update of a session; nil fields are unchanged.
type SessionPatch struct {
	PersonCount  *int
	StartingTime *string
	EndTime      *string
	Date         *string
	Users        []uint
	SetUsers     bool
	TrainerID    *uint
	Notes        *string
}

// SessionService manages the training session registry.
type SessionService interface {
	Create(ctx context.Context, in NewSession) (*Session, error)
	Get(ctx context.Context, id uint) (*Session, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Session, error)
	List(ctx context.Context, filter SessionFilter) ([]*Session, error)
	ListUpcoming(ctx context.Context, limit int) ([]*Session, error)
	Update(ctx context.Context, id uint, patch SessionPatch) (*Session, error)
	AddParticipant(ctx context.Context, id, userID uint) (*Session, error)
	RemoveParticipant(ctx context.Context, id, userID uint) (*Session, error)
	SetStatus(ctx context.Context, id uint, status SessionStatus) (*Session, error)
	Delete(ctx context.Context, id uint) error
}

// NewPayment is the input for recording a payment.
type NewPayment struct {
	UserID               uint
	SuperUserID          *uint
	Amount               float64
	Date                 *time.Time
	PackageType          PackageType
	SessionCount         int
	PaymentMethod        PaymentMethod
	TransactionReference string
	Currency             string
	GST                  float64
	Discount             float64
	Notes                string
}

// PaymentService manages the payment ledger.
type PaymentService interface {
	Create(ctx context.Context, in NewPayment) (*Payment, error)
	Get(ctx context.Context, id uint) (*Payment, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*Payment, error)
	List(ctx context.Context, filter PaymentFilter) ([]*Payment, error)
	ListForPayer(ctx context.Context, userID uint) ([]*Payment, *PayerSummary, error)
	ListForReferrer(ctx context.Context, superUserID uint) ([]*Payment, *ReferrerSummary, error)
	Update(ctx context.Context, id uint, patch PaymentPatch) (*Payment, error)
	SetStatus(ctx context.Context, id uint, status PaymentStatus, reference *string) (*Payment, error)
	Refund(ctx context.Context, id uint, reason string) (*Payment, error)
	Delete(ctx context.Context, id uint) error
	Statistics(ctx context.Context, from, to *time.Time) (*PaymentStatistics, error)
}

// PolicyService defines authorization policy operations
type PolicyService interface {
	AddPolicy(role, resource, action string) error
	RemovePolicy(role, resource, action string) error
	CheckPermission(role, resource, action string) (bool, error)
	GetPolicies() [][]string
}

// TokenClaims represents JWT token claims
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      Role   `json:"role,omitempty"`
	Type      string `json:"type"`
	ID        string `json:"jti"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// CasbinEnforcer interface defines the methods we need from Casbin enforcer
type CasbinEnforcer interface {
	AddPolicy(params ...interface{}) (bool, error)
	RemovePolicy(params ...interface{}) (bool, error)
	Enforce(rvals ...interface{}) (bool, error)
	GetPolicy() ([][]string, error)
	SavePolicy() error
}
