package middlewares

import (
	"net/http"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
)

// MaxBodyBytes rejects a declared oversize body up front and caps the reader
// for chunked uploads. Reads past the cap fail with *http.MaxBytesError,
// which the error handler renders as 413.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if max <= 0 {
			ctx.Next()
			return
		}

		if ctx.Request.ContentLength > max {
			respond.Fail(ctx, apperr.New(http.StatusRequestEntityTooLarge, "Request body too large", apperr.CodePayloadTooLarge))
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
