package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
)

func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				respond.Fail(c, apperr.New(http.StatusUnsupportedMediaType, "Content-Type must be application/json", apperr.CodeUnsupportedMedia))
				return
			}
		}
		c.Next()
	}
}
