// Package respond renders the JSON envelope shared by every endpoint.
package respond

import (
	"net/http"
	"time"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/gin-gonic/gin"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-Id"
)

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type ErrorEnvelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Error     string      `json:"error"`
	Code      apperr.Code `json:"code,omitempty"`
	Timestamp string      `json:"timestamp"`
	Path      string      `json:"path,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
	Details   any         `json:"details,omitempty"`
	Stack     string      `json:"stack,omitempty"`
}

// JSON writes a success envelope. success is derived from status, never passed in.
func JSON(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, Envelope{
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

// Fail hands err to the error handler middleware and stops the chain.
func Fail(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.Abort()
}

// Error writes the failure envelope for err. The stack is attached only when
// withStack is set and the error captured one.
func Error(ctx *gin.Context, err error, withStack bool) *apperr.Error {
	appErr := apperr.From(err)

	body := ErrorEnvelope{
		Success:   false,
		Message:   appErr.Message,
		Error:     http.StatusText(appErr.Status),
		Code:      appErr.Code,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Path:      ctx.Request.URL.Path,
		RequestID: RequestIDFrom(ctx),
		Details:   appErr.Details,
	}

	if withStack {
		body.Stack = apperr.StackTrace(err)
	}

	ctx.AbortWithStatusJSON(appErr.Status, body)

	return appErr
}

func RequestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get(RequestIDKey)

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader(RequestIDHeader)
}
