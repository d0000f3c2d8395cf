package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unique", &pgconn.PgError{Code: "23505"}, "unique_violation"},
		{"wrapped_unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), "unique_violation"},
		{"check", &pgconn.PgError{Code: "23514"}, "check_violation"},
		{"other_pg", &pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{"canceled", context.Canceled, "canceled"},
		{"deadline", context.DeadlineExceeded, "timeout"},
		{"conn", errors.New("failed to connect: connection refused"), "connection"},
		{"unknown", errors.New("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classifyDBErr(tt.err))
		})
	}
}

func TestObserveDB(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newProm(reg, reg)

	require.NoError(t, p.ObserveDB("users.get_by_id", func() error { return nil }))
	require.ErrorIs(t, p.ObserveDB("users.get_by_id", func() error { return pgx.ErrNoRows }), pgx.ErrNoRows)

	dup := &pgconn.PgError{Code: "23505"}
	require.ErrorIs(t, p.ObserveDB("users.create", func() error { return dup }), dup)

	require.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
	require.Equal(t, 1, testutil.CollectAndCount(p.DbErrorsTotal))
	require.Equal(t, 2, testutil.CollectAndCount(p.DbQueryDuration))
}

func TestObserveAuth(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := newProm(reg, reg)

	p.ObserveAuth("login", 200)
	p.ObserveAuth("login", 401)
	p.ObserveAuth("login", 401)
	p.ObserveAuth("register", 500)

	require.Equal(t, 1.0, testutil.ToFloat64(p.AuthAttempts.WithLabelValues("login", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(p.AuthAttempts.WithLabelValues("login", "rejected")))
	require.Equal(t, 1.0, testutil.ToFloat64(p.AuthAttempts.WithLabelValues("register", "error")))
}
