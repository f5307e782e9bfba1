package tokens

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute).UTC()

	tok, err := SignAccess("admin", userID, exp, secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, userID, claims.Subject)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	tok, err := SignAccess("user", uuid.NewString(), time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(tok, secret)
	assert.Nil(t, claims)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestAccessClaimsFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := SignAccess("user", uuid.NewString(), time.Now().Add(time.Minute), []byte("a"))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(tok, []byte("b"))
	require.Error(t, err)
}

func TestSignRefresh_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-refresh-secret")
	jti := uuid.NewString()

	tok, err := SignRefresh("user-1", jti, time.Now().Add(time.Hour), secret)
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, jti, claims.ID)
}
