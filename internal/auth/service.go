package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"pickcoordinator/internal/models"
	"pickcoordinator/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccountDisabled    = errors.New("account disabled")
)

// Claims represents the JWT claims
type Claims struct {
	PrincipalID string       `json:"principal_id"`
	Username    string       `json:"username"`
	Role        models.Role  `json:"role"`
	jwt.RegisteredClaims
}

// Service handles authentication operations: token issuance/validation,
// password hashing, and refresh-token lifecycle.
type Service struct {
	jwtSecret          []byte
	tokenDuration      time.Duration
	refreshTokenRepo   repository.RefreshTokenRepository
	refreshTokenExpiry time.Duration
}

// NewService creates a new authentication service. tokenDuration governs
// access_token_ttl_minutes; refreshTokenExpiry governs refresh_token_ttl_days.
func NewService(jwtSecret string, tokenDuration time.Duration, refreshTokenExpiry time.Duration, refreshTokenRepo repository.RefreshTokenRepository) *Service {
	return &Service{
		jwtSecret:          []byte(jwtSecret),
		tokenDuration:      tokenDuration,
		refreshTokenRepo:   refreshTokenRepo,
		refreshTokenExpiry: refreshTokenExpiry,
	}
}

// HashPassword hashes a password using bcrypt
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against its hash
func (s *Service) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateToken generates a JWT access token for a principal
func (s *Service) GenerateToken(principal *models.Principal) (string, error) {
	claims := Claims{
		PrincipalID: principal.ID.String(),
		Username:    principal.Username,
		Role:        principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// GenerateRefreshToken creates a new refresh token for a principal
func (s *Service) GenerateRefreshToken(ctx context.Context, principal *models.Principal) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	token := base64.URLEncoding.EncodeToString(tokenBytes)

	tokenHash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %w", err)
	}

	refreshToken := &models.RefreshToken{
		PrincipalID: principal.ID,
		TokenHash:   string(tokenHash),
		ExpiresAt:   time.Now().Add(s.refreshTokenExpiry),
	}

	if err := s.refreshTokenRepo.Create(refreshToken); err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return token, nil
}

// ValidateRefreshToken validates a refresh token, rotates it, and returns
// the owning principal alongside the newly issued refresh token.
func (s *Service) ValidateRefreshToken(ctx context.Context, token string) (*models.Principal, string, error) {
	allTokens, err := s.refreshTokenRepo.FindAll()
	if err != nil {
		return nil, "", ErrInvalidToken
	}

	var matched *models.RefreshToken
	for _, rt := range allTokens {
		if err := bcrypt.CompareHashAndPassword([]byte(rt.TokenHash), []byte(token)); err == nil {
			matched = rt
			break
		}
	}

	if matched == nil {
		return nil, "", ErrInvalidToken
	}

	if matched.IsExpired() {
		s.refreshTokenRepo.Delete(matched.ID)
		return nil, "", ErrTokenExpired
	}

	now := time.Now()
	matched.LastUsedAt = &now
	s.refreshTokenRepo.Update(matched)

	var principal models.Principal
	if err := s.refreshTokenRepo.GetDB().First(&principal, "id = ?", matched.PrincipalID).Error; err != nil {
		return nil, "", ErrInvalidToken
	}

	newRefreshToken, err := s.GenerateRefreshToken(ctx, &principal)
	if err != nil {
		return nil, "", err
	}

	s.refreshTokenRepo.Delete(matched.ID)

	return &principal, newRefreshToken, nil
}

// RevokeRefreshToken invalidates a refresh token
func (s *Service) RevokeRefreshToken(ctx context.Context, token string) error {
	allTokens, err := s.refreshTokenRepo.FindAll()
	if err != nil {
		return ErrInvalidToken
	}

	for _, rt := range allTokens {
		if err := bcrypt.CompareHashAndPassword([]byte(rt.TokenHash), []byte(token)); err == nil {
			return s.refreshTokenRepo.Delete(rt.ID)
		}
	}

	return ErrInvalidToken
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired()
}
