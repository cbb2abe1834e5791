package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("test-jwt-secret")
	refreshSecret = []byte("test-refresh-secret")
)

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(15 * time.Minute).UTC()
	token, err := NewAccessToken(accessSecret, "42", "seller", exp)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "seller", claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessToken_Expired(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken(accessSecret, "1", "customer", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, accessSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewAccessToken(accessSecret, "1", "customer", time.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, []byte("other"))
	require.Error(t, err)
}

func TestAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := AccessClaims{Role: "admin", RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(accessSecret)
	require.NoError(t, err)

	_, err = AccessClaimsFromToken(token, accessSecret)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedSignMethod)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(24 * time.Hour)
	token, jti, err := NewRefreshToken(refreshSecret, "7", exp)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, jti, claims.ID)

	_, err = RefreshClaimsFromToken(token, accessSecret)
	require.Error(t, err)
}

func TestSha256Hex(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", Sha256Hex("test"))
}
