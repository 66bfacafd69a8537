// Package validation holds the field-level error type shared by the domain
// packages. Validation runs before any backend call; a *Error never reaches
// the network layer.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error reports a single invalid input field.
type Error struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// New returns a *Error for field.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// As reports whether err is (or wraps) a validation error and returns it.
func As(err error) (*Error, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

var phoneRe = regexp.MustCompile(`^\d{10}$`)

// Phone checks a 10-digit phone number.
func Phone(field, v string) error {
	if v == "" {
		return New(field, "Phone number is required")
	}
	if !phoneRe.MatchString(v) {
		return New(field, "Phone number must be 10 digits")
	}
	return nil
}

// Password checks the minimum password policy.
func Password(field, v string) error {
	if v == "" {
		return New(field, "Password is required")
	}
	if len(v) < 8 {
		return New(field, "Password must be at least 8 characters")
	}
	return nil
}

// Required rejects an empty value.
func Required(field, v string) error {
	if v == "" {
		return New(field, field+" is required")
	}
	return nil
}

// ObjectID checks that v is a 24-hex backend object id.
func ObjectID(field, v string) error {
	if v == "" {
		return New(field, field+" is required")
	}
	if _, err := primitive.ObjectIDFromHex(v); err != nil {
		return New(field, "invalid id")
	}
	return nil
}

// OneOf rejects v unless it appears in allowed.
func OneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return New(field, fmt.Sprintf("must be one of %v", allowed))
}

// Clean strips null bytes and control characters (except \n, \r and \t)
// and trims surrounding whitespace. Free text is cleaned before it is
// validated or forwarded.
func Clean(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r == '\x00' {
			continue
		}
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
