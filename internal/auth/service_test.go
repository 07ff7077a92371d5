package auth

import (
	"context"
	"testing"
	"time"

	"pickcoordinator/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewService(t *testing.T) {
	service := NewService("test-secret", time.Hour, 24*time.Hour, nil)

	assert.NotNil(t, service)
	assert.Equal(t, []byte("test-secret"), service.jwtSecret)
	assert.Equal(t, time.Hour, service.tokenDuration)
	assert.Equal(t, 24*time.Hour, service.refreshTokenExpiry)
}

func TestHashPassword(t *testing.T) {
	service := NewService("test-secret", time.Hour, 24*time.Hour, nil)
	password := "testpassword123"

	hash, err := service.HashPassword(password)

	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)
}

func TestVerifyPassword(t *testing.T) {
	service := NewService("test-secret", time.Hour, 24*time.Hour, nil)
	password := "testpassword123"

	hash, err := service.HashPassword(password)
	require.NoError(t, err)

	t.Run("valid password", func(t *testing.T) {
		assert.NoError(t, service.VerifyPassword(password, hash))
	})

	t.Run("invalid password", func(t *testing.T) {
		assert.Error(t, service.VerifyPassword("wrongpassword", hash))
	})
}

func TestGenerateToken(t *testing.T) {
	service := NewService("test-secret", time.Hour, 24*time.Hour, nil)
	principal := &models.Principal{
		ID:       uuid.New(),
		Username: "testpicker",
		Role:     models.RolePicker,
	}

	token, err := service.GenerateToken(principal)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestValidateToken(t *testing.T) {
	service := NewService("test-secret", time.Hour, 24*time.Hour, nil)
	principal := &models.Principal{
		ID:       uuid.New(),
		Username: "testpicker",
		Role:     models.RolePicker,
	}

	token, err := service.GenerateToken(principal)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		claims, err := service.ValidateToken(token)

		require.NoError(t, err)
		assert.Equal(t, principal.ID.String(), claims.PrincipalID)
		assert.Equal(t, principal.Username, claims.Username)
		assert.Equal(t, principal.Role, claims.Role)
	})

	t.Run("invalid token", func(t *testing.T) {
		_, err := service.ValidateToken("invalid-token")
		assert.Equal(t, ErrInvalidToken, err)
	})

	t.Run("expired token", func(t *testing.T) {
		shortService := NewService("test-secret", time.Nanosecond, 24*time.Hour, nil)
		expiredToken, err := shortService.GenerateToken(principal)
		require.NoError(t, err)

		time.Sleep(time.Millisecond)

		_, err = shortService.ValidateToken(expiredToken)
		assert.Equal(t, ErrTokenExpired, err)
	})

	t.Run("token with different secret", func(t *testing.T) {
		differentService := NewService("different-secret", time.Hour, 24*time.Hour, nil)
		_, err := differentService.ValidateToken(token)
		assert.Equal(t, ErrInvalidToken, err)
	})
}

func TestCan(t *testing.T) {
	testCases := []struct {
		name     string
		role     models.Role
		cap      Capability
		isOwner  bool
		expected bool
	}{
		{"admin bypasses everything", models.RoleAdmin, CapManagePrincipals, false, true},
		{"requester can create", models.RoleRequester, CapCreate, true, true},
		{"requester cannot delete someone else's request", models.RoleRequester, CapDelete, false, false},
		{"requester cannot start picking", models.RoleRequester, CapStart, true, false},
		{"picker can start", models.RolePicker, CapStart, false, true},
		{"picker cannot create", models.RolePicker, CapCreate, true, false},
		{"picker cannot manage principals", models.RolePicker, CapManagePrincipals, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Can(tc.role, tc.cap, tc.isOwner))
		})
	}
}

// mockRefreshTokenRepository is an in-memory stand-in for
// repository.RefreshTokenRepository.
type mockRefreshTokenRepository struct {
	tokens []*models.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make([]*models.RefreshToken, 0)}
}

func (m *mockRefreshTokenRepository) Create(token *models.RefreshToken) error {
	m.tokens = append(m.tokens, token)
	return nil
}

func (m *mockRefreshTokenRepository) FindAll() ([]*models.RefreshToken, error) {
	return m.tokens, nil
}

func (m *mockRefreshTokenRepository) FindByPrincipalID(principalID uuid.UUID) ([]*models.RefreshToken, error) {
	result := make([]*models.RefreshToken, 0)
	for _, t := range m.tokens {
		if t.PrincipalID == principalID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockRefreshTokenRepository) Update(token *models.RefreshToken) error {
	for i, t := range m.tokens {
		if t.ID == token.ID {
			m.tokens[i] = token
			return nil
		}
	}
	return ErrInvalidToken
}

func (m *mockRefreshTokenRepository) Delete(id uuid.UUID) error {
	for i, t := range m.tokens {
		if t.ID == id {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			return nil
		}
	}
	return ErrInvalidToken
}

func (m *mockRefreshTokenRepository) DeleteByPrincipalID(principalID uuid.UUID) error {
	newTokens := make([]*models.RefreshToken, 0)
	for _, t := range m.tokens {
		if t.PrincipalID != principalID {
			newTokens = append(newTokens, t)
		}
	}
	m.tokens = newTokens
	return nil
}

func (m *mockRefreshTokenRepository) DeleteExpired() (int64, error) {
	count := int64(0)
	newTokens := make([]*models.RefreshToken, 0)
	now := time.Now()
	for _, t := range m.tokens {
		if t.ExpiresAt.After(now) {
			newTokens = append(newTokens, t)
		} else {
			count++
		}
	}
	m.tokens = newTokens
	return count, nil
}

func (m *mockRefreshTokenRepository) GetDB() *gorm.DB {
	return nil
}

func TestGenerateRefreshToken(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	service := NewService("test-secret", time.Hour, 24*time.Hour, mockRepo)
	principal := &models.Principal{ID: uuid.New(), Username: "testpicker", Role: models.RolePicker}

	token, err := service.GenerateRefreshToken(context.Background(), principal)

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Len(t, mockRepo.tokens, 1)
	assert.Equal(t, principal.ID, mockRepo.tokens[0].PrincipalID)
}

func TestRevokeRefreshToken(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	service := NewService("test-secret", time.Hour, 24*time.Hour, mockRepo)
	principal := &models.Principal{ID: uuid.New(), Username: "testpicker", Role: models.RolePicker}

	token, err := service.GenerateRefreshToken(context.Background(), principal)
	require.NoError(t, err)
	assert.Len(t, mockRepo.tokens, 1)

	require.NoError(t, service.RevokeRefreshToken(context.Background(), token))
	assert.Len(t, mockRepo.tokens, 0)

	t.Run("invalid token", func(t *testing.T) {
		assert.Equal(t, ErrInvalidToken, service.RevokeRefreshToken(context.Background(), "invalid-token"))
	})
}

func TestCleanupExpiredTokens(t *testing.T) {
	mockRepo := newMockRefreshTokenRepository()
	service := NewService("test-secret", time.Hour, 24*time.Hour, mockRepo)
	principalID := uuid.New()

	mockRepo.tokens = append(mockRepo.tokens,
		&models.RefreshToken{ID: uuid.New(), PrincipalID: principalID, TokenHash: "valid-hash", ExpiresAt: time.Now().Add(time.Hour)},
		&models.RefreshToken{ID: uuid.New(), PrincipalID: principalID, TokenHash: "expired-hash", ExpiresAt: time.Now().Add(-time.Hour)},
	)

	count, err := service.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, mockRepo.tokens, 1)
}
