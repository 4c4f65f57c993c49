package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-secret-key-for-testing-purposes", 24*time.Hour)
}

func TestNewJWTService(t *testing.T) {
	service := newTestJWTService()
	assert.NotNil(t, service)
	assert.Equal(t, 24*time.Hour, service.GetSessionExpiry())
}

func TestJWTService_GenerateSessionToken_Success(t *testing.T) {
	service := newTestJWTService()

	token, expiresAt, err := service.GenerateSessionToken("session-123")

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expiresAt.After(time.Now()))
	assert.True(t, expiresAt.Before(time.Now().Add(25*time.Hour)))
}

func TestJWTService_ValidateSessionToken_Valid(t *testing.T) {
	service := newTestJWTService()

	token, _, err := service.GenerateSessionToken("session-456")
	require.NoError(t, err)

	claims, err := service.ValidateSessionToken(token)

	require.NoError(t, err)
	assert.Equal(t, "session-456", claims.SessionID)
	assert.Equal(t, "session-456", claims.Subject)
	assert.Equal(t, issuer, claims.Issuer)
}

func TestJWTService_ValidateSessionToken_Expired(t *testing.T) {
	// Create a service with very short expiry
	service := NewJWTService("test-secret", 1*time.Millisecond)

	token, _, err := service.GenerateSessionToken("session-123")
	require.NoError(t, err)

	// Wait for token to expire
	time.Sleep(10 * time.Millisecond)

	claims, err := service.ValidateSessionToken(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateSessionToken_Invalid(t *testing.T) {
	service := newTestJWTService()

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"random string", "not-a-valid-token"},
		{"malformed JWT", "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.invalid.signature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := service.ValidateSessionToken(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTService_ValidateSessionToken_WrongSignature(t *testing.T) {
	service1 := NewJWTService("secret-key-1", time.Hour)
	service2 := NewJWTService("secret-key-2", time.Hour)

	// Generate token with service1
	token, _, err := service1.GenerateSessionToken("session-123")
	require.NoError(t, err)

	// Try to validate with service2 (different secret)
	claims, err := service2.ValidateSessionToken(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateSessionToken_WrongAlgorithm(t *testing.T) {
	service := newTestJWTService()

	// Create a token with a different algorithm (none)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		SessionID:        "session-123",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer},
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	claims, err := service.ValidateSessionToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestJWTService_ValidateSessionToken_ForeignIssuer(t *testing.T) {
	service := newTestJWTService()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		SessionID: "session-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := token.SignedString([]byte("test-secret-key-for-testing-purposes"))
	require.NoError(t, err)

	_, err = service.ValidateSessionToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateSessionToken_MissingSessionID(t *testing.T) {
	service := newTestJWTService()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tokenString, err := token.SignedString([]byte("test-secret-key-for-testing-purposes"))
	require.NoError(t, err)

	_, err = service.ValidateSessionToken(tokenString)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_TokensAreDifferent(t *testing.T) {
	service := newTestJWTService()

	token1, _, err := service.GenerateSessionToken("session-1")
	require.NoError(t, err)
	token2, _, err := service.GenerateSessionToken("session-2")
	require.NoError(t, err)

	assert.NotEqual(t, token1, token2)
}
