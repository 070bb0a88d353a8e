package services

import (
	"context"
	"testing"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWT:   config.JWTConfig{Secret: "signing-key", ExpiresIn: 3600},
		Admin: config.AdminConfig{Username: "ops", PasswordHash: string(hash)},
	}
}

func TestLoginIssuesToken(t *testing.T) {
	svc := NewAuthService(authConfig(t))

	signed, err := svc.Login(context.Background(), &models.LoginRequest{Username: "ops", Password: "s3cret"})
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) { return []byte("signing-key"), nil })
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "ops", claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewAuthService(authConfig(t))
	ctx := context.Background()

	_, err := svc.Login(ctx, &models.LoginRequest{Username: "ops", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &models.LoginRequest{Username: "root", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	unset := NewAuthService(&config.Config{Admin: config.AdminConfig{Username: "ops"}})
	_, err = unset.Login(ctx, &models.LoginRequest{Username: "ops", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
