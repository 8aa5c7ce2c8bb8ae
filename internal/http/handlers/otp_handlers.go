package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/pkg/response"
)

// OTPHandlers serve the WhatsApp-only passcode endpoints.
type OTPHandlers struct {
	authSvc domain.AuthService
	otpSvc  domain.OTPService
	otpTTL  time.Duration
}

func NewOTPHandlers(authSvc domain.AuthService, otpSvc domain.OTPService, otpTTL time.Duration) *OTPHandlers {
	return &OTPHandlers{authSvc: authSvc, otpSvc: otpSvc, otpTTL: otpTTL}
}

type phoneRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
}

type phoneVerifyRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	OTP         string `json:"otp" binding:"required"`
}

func (h *OTPHandlers) issue(c *gin.Context, message string) {
	var req phoneRequest
	if !bindJSON(c, &req, "Phone number is required") {
		return
	}
	to, err := domain.ParsePhone(req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	issue, err := h.otpSvc.Issue(c.Request.Context(), to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, message, nil, gin.H{
		"expiresIn": expiresIn(h.otpTTL),
		"delivered": issue.Delivered,
	})
}

// Send issues a passcode over WhatsApp.
func (h *OTPHandlers) Send(c *gin.Context) {
	h.issue(c, "OTP sent successfully via WhatsApp")
}

// Resend issues a fresh passcode once the resend window has passed.
func (h *OTPHandlers) Resend(c *gin.Context) {
	h.issue(c, "OTP resent successfully via WhatsApp")
}

// Verify logs in by phone and sends the welcome or login alert message.
func (h *OTPHandlers) Verify(c *gin.Context) {
	var req phoneVerifyRequest
	if !bindJSON(c, &req, "Phone number and OTP are required") {
		return
	}
	to, err := domain.ParsePhone(req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.authSvc.Login(c.Request.Context(), to, strings.TrimSpace(req.OTP),
		domain.LoginOptions{NotifyWhatsApp: true})
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
