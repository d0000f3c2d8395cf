package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
)

// ErrorHandler renders the last error a handler or middleware attached with
// ctx.Error. It must sit before anything that can fail in the chain.
func ErrorHandler(log *slog.Logger, withStack bool) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 {
			return
		}

		err := ctx.Errors.Last().Err

		if ctx.Writer.Written() {
			log.WarnContext(ctx.Request.Context(), "error_after_write", "err", err, "request_id", respond.RequestIDFrom(ctx))
			return
		}

		appErr := respond.Error(ctx, err, withStack)

		attrs := []any{
			"status", appErr.Status,
			"code", appErr.Code,
			"path", ctx.Request.URL.Path,
			"request_id", respond.RequestIDFrom(ctx),
		}

		if appErr.Status >= http.StatusInternalServerError {
			attrs = append(attrs, "err", err.Error())
			if stack := apperr.StackTrace(err); stack != "" && withStack {
				attrs = append(attrs, "stack", stack)
			}
			log.ErrorContext(ctx.Request.Context(), "request_failed", attrs...)
			return
		}

		log.DebugContext(ctx.Request.Context(), "request_rejected", attrs...)
	}
}

// Recovery turns a panic into a 500 envelope instead of gin's bare 500.
func Recovery(log *slog.Logger, withStack bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(ctx *gin.Context, recovered any) {
		err := pkgerrors.WithStack(fmt.Errorf("panic: %v", recovered))

		log.ErrorContext(ctx.Request.Context(), "panic_recovered",
			"err", err.Error(),
			"path", ctx.Request.URL.Path,
			"request_id", respond.RequestIDFrom(ctx),
		)

		respond.Error(ctx, apperr.Internal(err), withStack)
	})
}
