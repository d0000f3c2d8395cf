package handlers

import (
	"fmt"
	"net/http"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
)

const Version = "1.0.0"

// Welcome describes where the API lives.
func Welcome(apiPrefix, docsPath string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"message":       "Welcome to the authbase API!",
			"version":       Version,
			"documentation": docsPath,
			"health":        apiPrefix + "/health",
		})
	}
}

func NotFound(ctx *gin.Context) {
	respond.Fail(ctx, apperr.NotFound(fmt.Sprintf("Route %s not found", ctx.Request.URL.RequestURI()), apperr.CodeRouteNotFound))
}
