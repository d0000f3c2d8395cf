package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"
)

// drainAndShutdown flips /ready to 503, keeps serving for delay so load
// balancers stop routing here, then shuts the server down. A second signal on
// stop cuts the delay short.
func drainAndShutdown(srv *http.Server, draining *atomic.Bool, delay, timeout time.Duration, stop <-chan os.Signal, log *slog.Logger) error {
	draining.Store(true)

	if delay > 0 {
		log.Info("draining", "delay", delay.String())

		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-stop:
			t.Stop()
			log.Info("drain delay skipped")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	return nil
}
