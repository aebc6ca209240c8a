package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tojustn/Shepherd/internal/domain/shared"
)

const tokenSecret = "token-test-secret"

func mintToken(t *testing.T, secret, subject string, method jwt.SigningMethod) string {
	t.Helper()
	claims := jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if subject != "" {
		claims["sub"] = subject
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenVerifier_ValidToken(t *testing.T) {
	v := NewTokenVerifier(tokenSecret)

	id, err := v.Verify(mintToken(t, tokenSecret, "acc-1", jwt.SigningMethodHS256))
	require.NoError(t, err)
	assert.Equal(t, "acc-1", id)
}

func TestTokenVerifier_WrongSecret(t *testing.T) {
	v := NewTokenVerifier(tokenSecret)

	_, err := v.Verify(mintToken(t, "some-other-secret", "acc-1", jwt.SigningMethodHS256))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenVerifier_MissingSubject(t *testing.T) {
	v := NewTokenVerifier(tokenSecret)

	_, err := v.Verify(mintToken(t, tokenSecret, "", jwt.SigningMethodHS256))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenVerifier_RejectsNonHS256(t *testing.T) {
	v := NewTokenVerifier(tokenSecret)

	_, err := v.Verify(mintToken(t, tokenSecret, "acc-1", jwt.SigningMethodHS512))
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenVerifier_ExpiredToken(t *testing.T) {
	v := NewTokenVerifier(tokenSecret)

	claims := jwt.MapClaims{
		"sub": "acc-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(tokenSecret))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestTokenVerifier_EmptySecret(t *testing.T) {
	v := NewTokenVerifier("")

	_, err := v.Verify(mintToken(t, tokenSecret, "acc-1", jwt.SigningMethodHS256))
	assert.ErrorIs(t, err, shared.ErrConfiguration)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/progress", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", bearerToken(r))

	r = httptest.NewRequest("GET", "/api/v1/progress", nil)
	r.Header.Set("Authorization", "Basic abc123")
	assert.Empty(t, bearerToken(r))

	// EventSource clients cannot set headers
	r = httptest.NewRequest("GET", "/events/stream?token=abc123", nil)
	assert.Equal(t, "abc123", bearerToken(r))

	r = httptest.NewRequest("GET", "/events/stream", nil)
	assert.Empty(t, bearerToken(r))
}
