package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnsubscribeTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	id := uuid.New()

	token, err := svc.GenerateUnsubscribeToken(id)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.ValidateUnsubscribeToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestUnsubscribeTokenWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Hour).GenerateUnsubscribeToken(uuid.New())
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Hour).ValidateUnsubscribeToken(token)
	assert.Error(t, err)
}

func TestUnsubscribeTokenExpired(t *testing.T) {
	svc := NewJWTService("test-secret", -time.Minute)
	token, err := svc.GenerateUnsubscribeToken(uuid.New())
	require.NoError(t, err)

	_, err = svc.ValidateUnsubscribeToken(token)
	assert.Error(t, err)
}

func TestUnsubscribeTokenGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", time.Hour)
	_, err := svc.ValidateUnsubscribeToken("not-a-token")
	assert.Error(t, err)
}
