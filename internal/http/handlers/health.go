package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks   map[string]Pinger
	draining func() bool
	now      func() time.Time
}

// NewHealthHandler takes the dependencies /ready must reach, keyed by name.
// draining may be nil; when it reports true, /ready fails without pinging.
func NewHealthHandler(checks map[string]Pinger, draining func() bool) *HealthHandler {
	if draining == nil {
		draining = func() bool { return false }
	}
	return &HealthHandler{checks: checks, draining: draining, now: time.Now}
}

// Health reports that the process is serving. It never touches a dependency.
func (h *HealthHandler) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Server is running!",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *HealthHandler) Ready(ctx *gin.Context) {
	if h.draining() {
		respond.Fail(ctx, apperr.New(http.StatusServiceUnavailable, "Service shutting down", ""))
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	failed := false

	for name, p := range h.checks {
		if err := p.Ping(cctx); err != nil {
			status[name] = "unavailable"
			failed = true
			continue
		}
		status[name] = "ok"
	}

	if failed {
		respond.Fail(ctx, apperr.New(http.StatusServiceUnavailable, "Service not ready", "").WithDetails(status))
		return
	}

	respond.JSON(ctx, http.StatusOK, "Service ready", status)
}
