package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/fleet-gateway/internal/models"
)

func testUser() *models.User {
	return &models.User{
		ID:       uuid.New(),
		TenantID: uuid.New(),
		Email:    "user@fleet.test",
		Role:     models.RoleManager,
	}
}

func TestPasswordHashing(t *testing.T) {
	service := NewService("secret", time.Hour)

	hash, err := service.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, service.CheckPassword("correct horse battery staple", hash))
	assert.False(t, service.CheckPassword("wrong", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	service := NewService("secret", time.Hour)
	user := testUser()

	token, err := service.GenerateToken(user)
	require.NoError(t, err)

	claims, err := service.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Contains(t, claims.Permissions, "*:delete")
	assert.NotEmpty(t, claims.ID, "tokens must carry a session id")
}

func TestTokenSessionIDsAreUnique(t *testing.T) {
	service := NewService("secret", time.Hour)
	user := testUser()

	t1, err := service.GenerateToken(user)
	require.NoError(t, err)
	t2, err := service.GenerateToken(user)
	require.NoError(t, err)

	c1, err := service.ValidateToken(t1)
	require.NoError(t, err)
	c2, err := service.ValidateToken(t2)
	require.NoError(t, err)
	assert.NotEqual(t, c1.ID, c2.ID)
}

func TestExpiredTokenIsDistinct(t *testing.T) {
	service := NewService("secret", -time.Minute)

	token, err := service.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrExpiredToken))
	assert.False(t, errors.Is(err, ErrInvalidToken))
}

func TestTokenWrongSecret(t *testing.T) {
	signer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	token, err := signer.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestValidateGarbage(t *testing.T) {
	service := NewService("secret", time.Hour)
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := service.ValidateToken(tok)
		assert.True(t, errors.Is(err, ErrInvalidToken), "token %q", tok)
	}
}

func TestGenerateCSRFToken(t *testing.T) {
	service := NewService("secret", time.Hour)

	a, err := service.GenerateCSRFToken()
	require.NoError(t, err)
	b, err := service.GenerateCSRFToken()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
