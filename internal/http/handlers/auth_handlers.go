package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

// AuthHandlers handles passcode login and user administration requests.
type AuthHandlers struct {
	authSvc  domain.AuthService
	otpSvc   domain.OTPService
	profiles domain.ProfileService
	otpTTL   time.Duration
	log      *zap.Logger
}

// NewAuthHandlers creates new auth handlers. otpTTL is only reported to clients.
func NewAuthHandlers(authSvc domain.AuthService, otpSvc domain.OTPService, profiles domain.ProfileService,
	otpTTL time.Duration, log *zap.Logger) *AuthHandlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandlers{
		authSvc:  authSvc,
		otpSvc:   otpSvc,
		profiles: profiles,
		otpTTL:   otpTTL,
		log:      log.Named("auth_handlers"),
	}
}

// RequestOTPRequest asks for a login passcode by email or phone.
type RequestOTPRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

// VerifyOTPRequest completes a passcode login.
type VerifyOTPRequest struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp" binding:"required"`
}

// RefreshRequest carries a refresh token to redeem or revoke.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RoleRequest assigns a role to a user.
type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=member trainer admin"`
}

func expiresIn(ttl time.Duration) string {
	return fmt.Sprintf("%d minutes", int(ttl.Minutes()))
}

// identify prefers the email when both are supplied.
func identify(email, phone string) (domain.Identifier, error) {
	if e := strings.TrimSpace(email); e != "" {
		if !strings.Contains(e, "@") {
			return domain.Identifier{}, domain.ErrInvalidIdentifier
		}
		return domain.ParseIdentifier(e)
	}
	return domain.ParsePhone(phone)
}

func tokensBody(result *domain.AuthResult) gin.H {
	return gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	}
}

// RequestOTP issues a login passcode to an email address or WhatsApp number.
func (h *AuthHandlers) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if !bindJSON(c, &req, "") {
		return
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.PhoneNumber) == "" {
		response.Error(c, domain.NewValidationError(domain.FieldError{
			Field: "identifier", Message: "Email or phone number is required",
		}))
		return
	}
	to, err := identify(req.Email, req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}

	issue, err := h.otpSvc.Issue(c.Request.Context(), to)
	if err != nil {
		response.Error(c, err)
		return
	}

	channel := "WhatsApp"
	if to.Kind == domain.IdentifierEmail {
		channel = "email"
	}
	response.JSON(c, http.StatusOK, "OTP sent to your "+channel, nil, gin.H{
		"identifierType": string(to.Kind),
		"expiresIn":      expiresIn(h.otpTTL),
		"delivered":      issue.Delivered,
	})
}

// VerifyOTP logs in with a passcode, creating the account on first use.
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if !bindJSON(c, &req, "Identifier (email or phone) and OTP are required") {
		return
	}
	if strings.TrimSpace(req.Email) == "" && strings.TrimSpace(req.PhoneNumber) == "" {
		response.Error(c, domain.NewValidationError(domain.FieldError{
			Field: "identifier", Message: "Identifier (email or phone) and OTP are required",
		}))
		return
	}
	to, err := identify(req.Email, req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), to, strings.TrimSpace(req.OTP), domain.LoginOptions{})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Login successful", nil, gin.H{
		"user":      result.User,
		"tokens":    tokensBody(result),
		"isNewUser": result.IsNewUser,
	})
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req, "Refresh token is required") {
		return
	}
	result, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "Token refreshed successfully", nil, gin.H{
		"tokens": tokensBody(result),
	})
}

// Logout revokes a refresh token.
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req, "Refresh token is required") {
		return
	}
	if err := h.authSvc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Logged out successfully", nil)
}

// ListUsers returns every user (admin).
func (h *AuthHandlers) ListUsers(c *gin.Context) {
	users, err := h.profiles.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", users)
}

// GetUser returns one user (owner or admin).
func (h *AuthHandlers) GetUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.profiles.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "", user)
}

// SetRole changes a user's role (admin).
func (h *AuthHandlers) SetRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req RoleRequest
	if !bindJSON(c, &req, "") {
		return
	}
	user, err := h.profiles.SetRole(c.Request.Context(), id, domain.Role(req.Role))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.log.Info("role assigned", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)),
		zap.String("by", c.GetString("user_id")))
	response.OK(c, "User role updated successfully", user)
}
