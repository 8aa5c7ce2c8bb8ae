package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/you/gymdesk/domain"
	"github.com/you/gymdesk/internal/metrics"
)

const alertTimeLayout = "02/01/2006, 3:04:05 pm"

// MessageCreator is the part of the Twilio REST API the dispatcher uses.
type MessageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds WhatsApp sender settings.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	FromNumber  string
	CountryCode string
}

// TwilioServiceImpl implements domain.NotificationService over WhatsApp.
// Email has no provider and is written to the log.
type TwilioServiceImpl struct {
	api         MessageCreator
	fromNumber  string
	countryCode string
	log         *zap.Logger
}

// NewTwilioService creates a new Twilio notification service
func NewTwilioService(cfg TwilioConfig, log *zap.Logger) *TwilioServiceImpl {
	var api MessageCreator
	if cfg.AccountSID != "" && cfg.AuthToken != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		api = client.Api
	}
	return NewTwilioServiceWithAPI(api, cfg, log)
}

// NewTwilioServiceWithAPI creates a dispatcher on a custom message API. A nil
// api logs messages instead of sending them.
func NewTwilioServiceWithAPI(api MessageCreator, cfg TwilioConfig, log *zap.Logger) *TwilioServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = "91"
	}
	from := cfg.FromNumber
	if from != "" && !strings.HasPrefix(from, "whatsapp:") {
		from = "whatsapp:" + from
	}
	return &TwilioServiceImpl{
		api:         api,
		fromNumber:  from,
		countryCode: cfg.CountryCode,
		log:         log.Named("notifications"),
	}
}

// WhatsAppAddress formats a mobile number as a Twilio WhatsApp address.
func (t *TwilioServiceImpl) WhatsAppAddress(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if !strings.HasPrefix(digits, t.countryCode) || len(digits) <= 10 {
		digits = t.countryCode + digits
	}
	return "whatsapp:+" + digits
}

// SendOTP implements domain.NotificationService
func (t *TwilioServiceImpl) SendOTP(ctx context.Context, to domain.Identifier, code string, ttl time.Duration) error {
	if to.Kind == domain.IdentifierEmail {
		// no mail provider; the code is logged for the operator
		t.log.Info("email otp", zap.String("to", to.Value), zap.String("code", code),
			zap.Duration("ttl", ttl))
		metrics.NotificationsTotal.WithLabelValues("otp", metrics.ResultSkipped).Inc()
		return nil
	}
	body := fmt.Sprintf("Your verification OTP is: *%s*\n\nThis code will expire in %d minutes.\n\nDo not share this code with anyone.",
		code, int(ttl.Minutes()))
	return t.send("otp", to, body)
}

// SendWelcome implements domain.NotificationService
func (t *TwilioServiceImpl) SendWelcome(ctx context.Context, to domain.Identifier, name string) error {
	if to.Kind != domain.IdentifierPhone {
		return nil
	}
	body := fmt.Sprintf("Welcome to Web Services, %s! 🎉\n\nYour account has been successfully created.\n\nYou can now login using WhatsApp OTP.", name)
	return t.send("welcome", to, body)
}

// SendLoginAlert implements domain.NotificationService. at is rendered in
// its own location.
func (t *TwilioServiceImpl) SendLoginAlert(ctx context.Context, to domain.Identifier, name string, at time.Time) error {
	if to.Kind != domain.IdentifierPhone {
		return nil
	}
	body := fmt.Sprintf("Login successful! ✅\n\nYou have logged into Web Services at %s.\n\nIf this wasn't you, please contact support immediately.",
		at.Format(alertTimeLayout))
	return t.send("login_alert", to, body)
}

func (t *TwilioServiceImpl) send(kind string, to domain.Identifier, body string) error {
	addr := t.WhatsAppAddress(to.Value)

	// If credentials are not configured, log instead of sending
	if t.api == nil || t.fromNumber == "" {
		t.log.Info("whatsapp message not sent, sender not configured",
			zap.String("kind", kind), zap.String("to", addr), zap.String("body", body))
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.ResultSkipped).Inc()
		return nil
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(addr)
	params.SetFrom(t.fromNumber)
	params.SetBody(body)

	msg, err := t.api.CreateMessage(params)
	if err != nil {
		metrics.NotificationsTotal.WithLabelValues(kind, metrics.ResultFailure).Inc()
		t.log.Warn("whatsapp send failed", zap.String("kind", kind), zap.String("to", addr), zap.Error(err))
		return fmt.Errorf("failed to send WhatsApp %s: %w", kind, err)
	}
	metrics.NotificationsTotal.WithLabelValues(kind, metrics.ResultSuccess).Inc()
	if msg != nil && msg.Sid != nil {
		t.log.Debug("whatsapp sent", zap.String("kind", kind), zap.String("sid", *msg.Sid))
	}
	return nil
}

var _ domain.NotificationService = (*TwilioServiceImpl)(nil)
