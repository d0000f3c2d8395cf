package middlewares

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/authbase/internal/actorctx"
	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/auth"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
)

const MsgInvalidToken = "Invalid or expired token"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
	log *slog.Logger
}

func NewAuthMiddleware(jwt TokenVerifier, log *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, log: log}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Fail(c, apperr.Unauthorized("Access token required", apperr.CodeAuthenticationFailed))
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			respond.Fail(c, apperr.Unauthorized("Access token required", apperr.CodeAuthenticationFailed))
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			// the client always gets the same message; the reason is only logged
			m.log.InfoContext(c.Request.Context(), "token_rejected",
				"reason", rejectReason(err),
				"request_id", respond.RequestIDFrom(c),
			)
			respond.Fail(c, apperr.Unauthorized(MsgInvalidToken, apperr.CodeInvalidToken).WithCause(err))
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithUserID(c.Request.Context(), claims.UserID()))

		c.Next()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrTokenSignature):
		return "bad_signature"
	case errors.Is(err, auth.ErrTokenMalformed):
		return "malformed"
	default:
		return "unknown"
	}
}

// UserIDFromContext returns the user RequireAuth put on the request context.
func UserIDFromContext(c *gin.Context) (string, bool) {
	return actorctx.UserIDFrom(c.Request.Context())
}
