package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	auth := NewAuthService("test-secret")
	identity := uuid.New()

	token, err := auth.IssueToken(identity, time.Minute)
	require.NoError(t, err)

	got, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestVerifyRejects(t *testing.T) {
	auth := NewAuthService("test-secret")
	identity := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewAuthService("other-secret").IssueToken(identity, time.Minute)
		require.NoError(t, err)
		_, err = auth.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := auth.IssueToken(identity, time.Minute)
		require.NoError(t, err)

		later := &AuthService{jwtSecret: auth.jwtSecret, now: func() time.Time { return time.Now().Add(time.Hour) }}
		_, err = later.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("no expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject: identity.String(),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("bad subject", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Subject:   "test@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   identity.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = auth.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestEmptySecret(t *testing.T) {
	auth := NewAuthService("")

	_, err := auth.IssueToken(uuid.New(), time.Minute)
	require.ErrorIs(t, err, ErrEmptySecret)

	_, err = auth.Verify("anything")
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestDefaultTTL(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	auth := &AuthService{jwtSecret: []byte("s"), now: func() time.Time { return fixed }}

	token, err := auth.IssueToken(uuid.New(), 0)
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(DefaultTokenTTL), claims.ExpiresAt.Time.UTC())
}
