package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitializeJWT("test-secret")

	token, expiresIn, err := GenerateToken("01HUSER", "ada@example.com", "USER", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(TokenExpiry.Seconds()), expiresIn)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "01HUSER", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "USER", claims.Role)
}

func TestRememberMeExpiry(t *testing.T) {
	InitializeJWT("test-secret")

	_, shortExpiry, err := GenerateToken("01HUSER", "ada@example.com", "USER", false)
	require.NoError(t, err)

	_, longExpiry, err := GenerateToken("01HUSER", "ada@example.com", "USER", true)
	require.NoError(t, err)

	assert.Equal(t, int64(TokenExpiryRememberMe.Seconds()), longExpiry)
	assert.Greater(t, longExpiry, shortExpiry)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	InitializeJWT("secret-one")
	token, _, err := GenerateToken("01HUSER", "ada@example.com", "USER", false)
	require.NoError(t, err)

	InitializeJWT("secret-two")
	_, err = ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	InitializeJWT("test-secret")

	_, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Str0ngPass1")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass1", hash)

	assert.NoError(t, VerifyPassword("Str0ngPass1", hash))
	assert.Error(t, VerifyPassword("wrong", hash))
}
