package validator

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrEmptyEmail indicates the email address is empty
	ErrEmptyEmail = errors.New("email address cannot be empty")

	// ErrInvalidEmail indicates the email address is malformed
	ErrInvalidEmail = errors.New("invalid email address format")

	// ErrEmailTooLong indicates the email address exceeds the RFC limit
	ErrEmailTooLong = errors.New("email address exceeds 254 characters")
)

// emailRegex is a pragmatic pattern, not a full RFC 5322 parser
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// EmailValidator handles email address validation and normalization
type EmailValidator struct{}

// NewEmailValidator creates a new email validator instance
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{}
}

// Validate checks an email address and returns its normalized form.
// Normalization lowercases and trims surrounding whitespace; addresses are
// compared and stored in this form so lookups are case-insensitive.
func (v *EmailValidator) Validate(email string) (string, error) {
	if email == "" {
		return "", ErrEmptyEmail
	}

	normalized := v.Normalize(email)

	if normalized == "" {
		return "", ErrEmptyEmail
	}
	if len(normalized) > 254 {
		return "", ErrEmailTooLong
	}
	if !emailRegex.MatchString(normalized) {
		return "", ErrInvalidEmail
	}

	return normalized, nil
}

// Normalize lowercases the address and strips surrounding whitespace
func (v *EmailValidator) Normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid is a convenience method that returns true if the email is valid
func (v *EmailValidator) IsValid(email string) bool {
	_, err := v.Validate(email)
	return err == nil
}
