// Package validation holds the input rules shared by the HTTP binding layer
// and the authentication service. Every function is pure.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	EmailMaxLength    = 255
	PasswordMinLength = 8
	PasswordMaxLength = 128
	NameMinLength     = 1
	NameMaxLength     = 100

	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Error is a rejected input. Reason is safe to show to the client.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Reason
}

func reject(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

var (
	emailRules = validator.New()
	whitespace = regexp.MustCompile(`\s+`)
)

func ValidateEmail(email string) error {
	if email == "" {
		return reject("email", "Email is required")
	}

	if utf8.RuneCountInString(email) > EmailMaxLength {
		return reject("email", fmt.Sprintf("Email must not exceed %d characters", EmailMaxLength))
	}

	if err := emailRules.Var(email, "email"); err != nil {
		return reject("email", "Invalid email format")
	}

	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return reject("password", "Password is required")
	}

	n := utf8.RuneCountInString(password)

	if n < PasswordMinLength {
		return reject("password", fmt.Sprintf("Password must be at least %d characters long", PasswordMinLength))
	}

	if n > PasswordMaxLength {
		return reject("password", fmt.Sprintf("Password must not exceed %d characters", PasswordMaxLength))
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !upper {
		return reject("password", "Password must contain at least one uppercase letter")
	}
	if !lower {
		return reject("password", "Password must contain at least one lowercase letter")
	}
	if !digit {
		return reject("password", "Password must contain at least one number")
	}

	return nil
}

// ValidateName accepts the empty string: the name is optional.
func ValidateName(name string) error {
	if name == "" {
		return nil
	}

	trimmed := strings.TrimSpace(name)
	n := utf8.RuneCountInString(trimmed)

	if n < NameMinLength {
		return reject("name", fmt.Sprintf("Name must be at least %d character long", NameMinLength))
	}

	if n > NameMaxLength {
		return reject("name", fmt.Sprintf("Name must not exceed %d characters", NameMaxLength))
	}

	for _, r := range trimmed {
		if unicode.IsLetter(r) || unicode.IsSpace(r) || r == '-' || r == '\'' {
			continue
		}
		return reject("name", "Name can only contain letters, spaces, hyphens, and apostrophes")
	}

	return nil
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ValidatePagination treats zero as "not supplied". An out-of-range limit is
// rejected, never clamped.
func ValidatePagination(page, limit int) (Page, error) {
	if page == 0 {
		page = DefaultPage
	}
	if limit == 0 {
		limit = DefaultLimit
	}

	if page < 1 {
		return Page{}, reject("page", "Page must be greater than 0")
	}

	if limit < 1 {
		return Page{}, reject("limit", "Limit must be greater than 0")
	}

	if limit > MaxLimit {
		return Page{}, reject("limit", fmt.Sprintf("Limit must not exceed %d", MaxLimit))
	}

	return Page{Page: page, Limit: limit}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func SanitizeString(s string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(s), " ")
}
