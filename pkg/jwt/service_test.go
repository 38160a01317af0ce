package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	svc, err := NewService("secret", time.Hour, "companion-chat")
	require.NoError(t, err)

	token, err := svc.GenerateToken("p1", "", true)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "p1", claims.ProfileID)
	assert.True(t, claims.Guest)
	assert.Equal(t, RoleGuest, claims.Role)

	token, err = svc.GenerateToken("p1", "uid-7", false)
	require.NoError(t, err)
	claims, err = svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-7", claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)
}

func TestExpiredToken(t *testing.T) {
	svc, err := NewService("secret", time.Minute, "")
	require.NoError(t, err)
	issued := time.Now()
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateToken("p1", "", true)
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestRejectsForeignTokens(t *testing.T) {
	a, _ := NewService("secret-a", time.Hour, "")
	b, _ := NewService("secret-b", time.Hour, "")

	token, err := a.GenerateToken("p1", "", false)
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = a.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewServiceRequiresSecret(t *testing.T) {
	_, err := NewService("", time.Hour, "")
	assert.Error(t, err)
}
