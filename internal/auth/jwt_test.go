package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.VerifyAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID())
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	require.NotNil(t, claims.IssuedAt)
}

func TestVerify_Expired(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_BadSignature(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, err := issuer.GenerateAccessToken("user-1")
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerify_WrongAlgorithm(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrTokenSignature)
}

func TestVerify_Malformed(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-jwt", "a.b.c", strings.Repeat("x", 40)} {
		_, err := m.VerifyAccessToken(raw)
		require.ErrorIs(t, err, ErrTokenMalformed, "token %q", raw)
	}
}

func TestVerify_MissingSubject(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken("")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestVerify_MissingExpiry(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}).
		SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(token)
	require.Error(t, err)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "", want: DefaultTokenTTL},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: "15m", want: 15 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "3600", want: time.Hour},
		{in: "0", wantErr: true},
		{in: "-5m", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNewManagerDefaultsTTL(t *testing.T) {
	require.Equal(t, DefaultTokenTTL, NewManager("s", 0).TTL())
}
