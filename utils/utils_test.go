package utils

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := ValidateJWT(token)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "user@example.com", claims["email"])
	require.Equal(t, "access", claims["type"])
}

func TestGenerateRefreshTokenClaims(t *testing.T) {
	refresh, err := GenerateRefreshToken("user@example.com", "session-123")
	require.NoError(t, err)

	parsed, err := ValidateJWT(refresh)
	require.NoError(t, err)

	claims, ok := parsed.Claims.(jwt.MapClaims)
	require.True(t, ok)
	require.Equal(t, "refresh", claims["type"])
	require.Equal(t, "session-123", claims["sessionId"])
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not-a-token")
	require.Error(t, err)
}

func TestValidateJWTRejectsTamperedToken(t *testing.T) {
	token, err := GenerateJWT("user@example.com")
	require.NoError(t, err)

	_, err = ValidateJWT(token + "x")
	require.Error(t, err)
}

func TestHashAndValidatePassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret!", hash)

	require.True(t, ValidatePassword(hash, "s3cret!"))
	require.False(t, ValidatePassword(hash, "wrong"))
	require.False(t, ValidatePassword("not-a-hash", "s3cret!"))
}
