package middlewares

import (
	"log/slog"
	"time"

	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxRequestIDLen = 128

func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(respond.RequestIDHeader)

		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}

		ctx.Writer.Header().Set(respond.RequestIDHeader, id)

		ctx.Set(CtxRequestID, id)

		ctx.Next()

	}
}

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = ctx.Request.URL.Path // fallback (e.g. 404)
		}

		method := ctx.Request.Method

		ctx.Next()

		lat := time.Since(start)
		status := ctx.Writer.Status()

		logAttrs := []any{
			"method", method,
			"route", route,
			"status", status,
			"latency_ms", lat.Milliseconds(),
			"request_id", respond.RequestIDFrom(ctx),
			"client_ip", ctx.ClientIP(),
		}

		log.InfoContext(ctx.Request.Context(), "http_request", logAttrs...)
	}
}
