package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "payvault")
	userID := uuid.New()

	token, expiresAt, err := svc.Generate(userID, "user@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestJWTTokenService_Validate_WrongSecret(t *testing.T) {
	svc := NewJWTTokenService("secret-a", time.Hour, "payvault")
	other := NewJWTTokenService("secret-b", time.Hour, "payvault")

	token, _, err := svc.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Expired(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", -time.Minute, "payvault")

	token, _, err := svc.Generate(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestJWTTokenService_Validate_Garbage(t *testing.T) {
	svc := NewJWTTokenService("test-secret-key", time.Hour, "payvault")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}
