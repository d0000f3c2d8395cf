// Package apperr is the error value every failure is reduced to before it
// reaches the client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/geocoder89/authbase/internal/domain/user"
	"github.com/geocoder89/authbase/internal/validation"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pkgerrors "github.com/pkg/errors"
)

type Code string

const (
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeAuthenticationFailed Code = "AUTHENTICATION_FAILED"
	CodeAuthorizationFailed  Code = "AUTHORIZATION_FAILED"
	CodeUserNotFound         Code = "USER_NOT_FOUND"
	CodeUserAlreadyExists    Code = "USER_ALREADY_EXISTS"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeTokenExpired         Code = "TOKEN_EXPIRED"
	CodeInternal             Code = "INTERNAL_ERROR"
	CodeRouteNotFound        Code = "ROUTE_NOT_FOUND"
	CodeRateLimited          Code = "RATE_LIMITED"
	CodePayloadTooLarge      Code = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia     Code = "UNSUPPORTED_MEDIA_TYPE"
)

const (
	MsgEmailTaken         = "User with this email already exists"
	MsgInvalidCredentials = "Invalid email or password"
	MsgUserNotFound       = "User not found"
	MsgInternal           = "Internal Server Error"
)

type Error struct {
	Status  int
	Message string
	Code    Code
	// Operational marks expected failures; false means a defect or an infra fault.
	Operational bool
	Details     any

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func New(status int, message string, code Code) *Error {
	return &Error{Status: status, Message: message, Code: code, Operational: true}
}

func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func Validation(message string) *Error {
	return New(http.StatusBadRequest, message, CodeValidation)
}

func Conflict(message string, code Code) *Error {
	return New(http.StatusConflict, message, code)
}

func Unauthorized(message string, code Code) *Error {
	return New(http.StatusUnauthorized, message, code)
}

func NotFound(message string, code Code) *Error {
	return New(http.StatusNotFound, message, code)
}

// Internal hides cause from the client. The cause keeps a stack trace for
// non-production diagnostics.
func Internal(cause error) *Error {
	if cause != nil {
		cause = pkgerrors.WithStack(cause)
	}

	return &Error{
		Status:      http.StatusInternalServerError,
		Message:     MsgInternal,
		Code:        CodeInternal,
		Operational: false,
		cause:       cause,
	}
}

// From reduces any error to an *Error. Known store and input shapes get their
// own status; everything else becomes a 500.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var vErr *validation.Error
	if errors.As(err, &vErr) {
		return Validation(vErr.Reason).WithCause(err)
	}

	if errors.Is(err, user.ErrEmailTaken) || IsUniqueViolation(err) {
		return Conflict(MsgEmailTaken, CodeUserAlreadyExists).WithCause(err)
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return New(http.StatusRequestEntityTooLarge, "Request body too large", CodePayloadTooLarge).WithCause(err)
	}

	return Internal(err)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// StackTrace renders the deepest recorded stack of err, or "" when none was captured.
func StackTrace(err error) string {
	type stackTracer interface {
		StackTrace() pkgerrors.StackTrace
	}

	var st stackTracer
	for e := err; e != nil; e = errors.Unwrap(e) {
		if s, ok := e.(stackTracer); ok {
			st = s
		}
	}

	if st == nil {
		return ""
	}

	return fmt.Sprintf("%+v", st.StackTrace())
}
