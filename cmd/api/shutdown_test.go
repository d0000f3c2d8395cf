package main

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, draining *atomic.Bool) (*http.Server, string, <-chan error) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if draining.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	return srv, "http://" + ln.Addr().String() + "/ready", served
}

func getStatus(t *testing.T, url string) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	return resp.StatusCode
}

func TestDrainKeepsServingUntilDelayElapses(t *testing.T) {
	var draining atomic.Bool
	srv, url, served := startServer(t, &draining)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	require.Equal(t, http.StatusOK, getStatus(t, url))

	done := make(chan error, 1)
	go func() {
		done <- drainAndShutdown(srv, &draining, 300*time.Millisecond, time.Second, make(chan os.Signal), log)
	}()

	require.Eventually(t, draining.Load, time.Second, 5*time.Millisecond)
	// still accepting connections, and readiness says no
	require.Equal(t, http.StatusServiceUnavailable, getStatus(t, url))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not finish")
	}

	require.ErrorIs(t, <-served, http.ErrServerClosed)
}

func TestSecondSignalSkipsDrainDelay(t *testing.T) {
	var draining atomic.Bool
	srv, _, served := startServer(t, &draining)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	stop := make(chan os.Signal, 1)
	stop <- os.Interrupt

	start := time.Now()
	require.NoError(t, drainAndShutdown(srv, &draining, time.Hour, time.Second, stop, log))
	require.Less(t, time.Since(start), time.Minute)
	require.True(t, draining.Load())
	require.ErrorIs(t, <-served, http.ErrServerClosed)
}
