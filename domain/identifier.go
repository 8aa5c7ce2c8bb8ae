package domain

import (
	"regexp"
	"strings"
)

// IdentifierKind says which channel a login identifier belongs to.
type IdentifierKind string

const (
	IdentifierEmail IdentifierKind = "email"
	IdentifierPhone IdentifierKind = "phone"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[6-9]\d{9}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// Identifier is a normalized email address or 10-digit mobile number.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

func (i Identifier) String() string { return i.Value }

// ParseIdentifier accepts an email address or an Indian mobile number.
// Mobile numbers lose every non-digit and an optional 91 country prefix.
func ParseIdentifier(raw string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, ErrInvalidIdentifier
	}
	if strings.Contains(raw, "@") {
		email := strings.ToLower(raw)
		if !emailPattern.MatchString(email) {
			return Identifier{}, ErrInvalidIdentifier
		}
		return Identifier{Kind: IdentifierEmail, Value: email}, nil
	}
	return ParsePhone(raw)
}

// ParsePhone normalizes a mobile number and rejects anything but a phone.
func ParsePhone(raw string) (Identifier, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if !phonePattern.MatchString(digits) {
		return Identifier{}, ErrInvalidPhone
	}
	return Identifier{Kind: IdentifierPhone, Value: digits}, nil
}
