package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetops/fleet-gateway/internal/models"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service handles password hashing and bearer token issue/verify.
type Service struct {
	jwtSecret []byte
	tokenExp  time.Duration
}

// NewService creates a new authentication service
func NewService(secret string, expiry time.Duration) *Service {
	return &Service{
		jwtSecret: []byte(secret),
		tokenExp:  expiry,
	}
}

// TokenExpiry returns the configured token lifetime.
func (s *Service) TokenExpiry() time.Duration {
	return s.tokenExp
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPassword checks if a password matches a hash
func (s *Service) CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken issues a bearer token embedding the user's tenant, role and
// permission set.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &models.JWTClaims{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		Role:        user.Role,
		Permissions: user.Permissions(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken verifies a bearer token and returns its claims. Expired
// tokens are distinguished from otherwise invalid ones.
func (s *Service) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GenerateCSRFToken produces a random per-session CSRF token.
func (s *Service) GenerateCSRFToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
