package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ArowuTest/mtn-ras-backend/internal/config"
	"github.com/ArowuTest/mtn-ras-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for any failed login, whatever the cause
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService defines the interface for operator authentication
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (string, error) // Returns JWT token
}

type authService struct {
	admin     config.AdminConfig
	jwtSecret []byte
	expiresIn time.Duration
	now       func() time.Time
}

// NewAuthService creates an AuthService for the configured admin account
func NewAuthService(cfg *config.Config) AuthService {
	return &authService{
		admin:     cfg.Admin,
		jwtSecret: []byte(cfg.JWT.Secret),
		expiresIn: time.Duration(cfg.JWT.ExpiresIn) * time.Second,
		now:       time.Now,
	}
}

// Login checks the password against the stored bcrypt hash and issues an HS256 token
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, error) {
	if s.admin.PasswordHash == "" || len(s.jwtSecret) == 0 {
		slog.WarnContext(ctx, "Login attempted but admin credentials are not configured")
		return "", ErrInvalidCredentials
	}
	if req.Username != s.admin.Username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.admin.PasswordHash), []byte(req.Password)); err != nil {
		slog.WarnContext(ctx, "Failed admin login", "username", req.Username)
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(s.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", err
	}
	return signed, nil
}
