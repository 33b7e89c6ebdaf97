package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieService_roundTrip(t *testing.T) {
	svc := NewCookieService("test-secret")

	signed, err := svc.Sign("session-123", time.Hour)
	require.NoError(t, err)

	got, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "session-123", got)
}

func TestCookieService_rejectsWrongSecret(t *testing.T) {
	signed, err := NewCookieService("secret-a").Sign("session-123", time.Hour)
	require.NoError(t, err)

	_, err = NewCookieService("secret-b").Verify(signed)
	assert.Error(t, err)
}

func TestCookieService_rejectsExpired(t *testing.T) {
	svc := NewCookieService("test-secret")

	signed, err := svc.Sign("session-123", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.Error(t, err)
}

func TestCookieService_rejectsGarbage(t *testing.T) {
	svc := NewCookieService("test-secret")
	_, err := svc.Verify("not-a-jwt")
	assert.Error(t, err)
}
