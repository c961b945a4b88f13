package tokengenerator

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJwtTokenGenerator_RoundTrip(t *testing.T) {
	generator := NewJwtTokenGenerator("test-secret", "sessionguard-test", "learnhub")
	subject := uuid.New().String()

	tokenStr, jti, expiresAt, err := generator.GenerateToken(subject, time.Hour, "alice", []string{"student"})
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)
	require.NotEmpty(t, jti)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiresAt, 5*time.Second)

	token, err := generator.ParseToken(tokenStr)
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, subject, claims["sub"])
	assert.Equal(t, jti, claims["jti"])
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, "sessionguard-test", claims["iss"])
}

func TestJwtTokenGenerator_UniqueTokenIDs(t *testing.T) {
	generator := NewJwtTokenGenerator("test-secret", "sessionguard-test", "learnhub")

	_, first, _, err := generator.GenerateToken("sub", time.Hour, "", nil)
	require.NoError(t, err)
	_, second, _, err := generator.GenerateToken("sub", time.Hour, "", nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestJwtTokenGenerator_ParseRejectsWrongSecret(t *testing.T) {
	generator := NewJwtTokenGenerator("test-secret", "sessionguard-test", "learnhub")
	tokenStr, _, _, err := generator.GenerateToken("sub", time.Hour, "", nil)
	require.NoError(t, err)

	other := NewJwtTokenGenerator("different-secret", "sessionguard-test", "learnhub")
	_, err = other.ParseToken(tokenStr)
	assert.Error(t, err)
}
