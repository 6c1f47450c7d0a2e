// Package validator provides input validation and sanitization for compose and listing requests.
package validator

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrTooManyAddresses = errors.New("too many recipients")
)

// Compose limits
const (
	MaxRecipients    = 50
	MaxSubjectLength = 998
	MaxBodyBytes     = 5 << 20
)

// ValidateEmail validates email address format according to RFC 5322.
// Returns nil if valid, or an appropriate error.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return ErrEmptyInput
	}

	// RFC 5321 specifies max email length of 254 characters
	if utf8.RuneCountInString(email) > 254 {
		return ErrInputTooLong
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateRecipients validates a comma separated To header value
func ValidateRecipients(to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return ErrEmptyInput
	}

	addrs, err := mail.ParseAddressList(to)
	if err != nil {
		return ErrInvalidEmail
	}
	if len(addrs) > MaxRecipients {
		return ErrTooManyAddresses
	}
	for _, addr := range addrs {
		if err := ValidateEmail(addr.Address); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCompose checks the user-supplied parts of an outgoing message
func ValidateCompose(to, subject, text, html string) error {
	if err := ValidateRecipients(to); err != nil {
		return err
	}
	if utf8.RuneCountInString(subject) > MaxSubjectLength {
		return ErrInputTooLong
	}
	if len(text)+len(html) > MaxBodyBytes {
		return ErrInputTooLong
	}
	return nil
}

// Pagination constants
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeString removes potentially dangerous characters and enforces length limits.
// Removes control characters and trims whitespace.
func SanitizeString(input string, maxLength int) string {
	// Remove control characters (ASCII 0-31 and 127)
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
