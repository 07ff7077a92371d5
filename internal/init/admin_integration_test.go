package init

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/repository"
)

func TestAdminCreator_CreateAdminUser_Integration(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	testPassword := "secure-admin-password-123"

	adminPrincipal, err := adminCreator.CreateAdminUser(testPassword)
	assert.NoError(t, err)
	assert.NotNil(t, adminPrincipal)

	assert.Equal(t, "admin", adminPrincipal.Username)
	assert.Equal(t, models.RoleAdmin, adminPrincipal.Role)
	assert.NotEmpty(t, adminPrincipal.PasswordHash)
	assert.NotEqual(t, testPassword, adminPrincipal.PasswordHash)

	var dbPrincipal models.Principal
	err = testDB.DB.Where("username = ?", "admin").First(&dbPrincipal).Error
	assert.NoError(t, err)
	assert.Equal(t, adminPrincipal.ID, dbPrincipal.ID)
	assert.Equal(t, adminPrincipal.Username, dbPrincipal.Username)
	assert.Equal(t, adminPrincipal.PasswordHash, dbPrincipal.PasswordHash)

	err = authService.VerifyPassword(testPassword, adminPrincipal.PasswordHash)
	assert.NoError(t, err, "Password should be verifiable")
}

func TestAdminCreator_CreateAdminUserFromEnv_Integration(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		} else {
			os.Unsetenv("DEFAULT_ADMIN_PASSWORD")
		}
	}()
	testPassword := "env-admin-password-456"
	os.Setenv("DEFAULT_ADMIN_PASSWORD", testPassword)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	adminPrincipal, err := adminCreator.CreateAdminUserFromEnv()
	assert.NoError(t, err)
	assert.NotNil(t, adminPrincipal)

	assert.Equal(t, "admin", adminPrincipal.Username)
	assert.Equal(t, models.RoleAdmin, adminPrincipal.Role)

	err = authService.VerifyPassword(testPassword, adminPrincipal.PasswordHash)
	assert.NoError(t, err, "Password from environment should be verifiable")
}

func TestAdminCreator_CreateAdminUserFromEnv_MissingEnvironmentVariable(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		}
	}()
	os.Unsetenv("DEFAULT_ADMIN_PASSWORD")

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	adminPrincipal, err := adminCreator.CreateAdminUserFromEnv()
	assert.Error(t, err)
	assert.Nil(t, adminPrincipal)
	assert.Contains(t, err.Error(), "DEFAULT_ADMIN_PASSWORD environment variable is required")
}

func TestAdminCreator_CreateAdminUser_DuplicateUser(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	testPassword := "secure-admin-password-123"
	adminPrincipal1, err := adminCreator.CreateAdminUser(testPassword)
	assert.NoError(t, err)
	assert.NotNil(t, adminPrincipal1)

	adminPrincipal2, err := adminCreator.CreateAdminUser(testPassword)
	assert.Error(t, err)
	assert.Nil(t, adminPrincipal2)
	assert.Contains(t, err.Error(), "admin principal already exists")

	var adminCount int64
	err = testDB.DB.Model(&models.Principal{}).Where("username = ?", "admin").Count(&adminCount).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), adminCount)
}

func TestAdminCreator_CreateAdminUser_WeakPassword(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	weakPasswords := []string{
		"",        // Empty password
		"weak",    // Too short
		"1234567", // 7 characters (less than 8)
	}

	for _, weakPassword := range weakPasswords {
		t.Run("WeakPassword_"+weakPassword, func(t *testing.T) {
			adminPrincipal, err := adminCreator.CreateAdminUser(weakPassword)
			assert.Error(t, err)
			assert.Nil(t, adminPrincipal)
			assert.Contains(t, err.Error(), "password")
		})
	}
}

func TestAdminCreator_AdminUserExists_Integration(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	exists, err := adminCreator.AdminUserExists()
	assert.NoError(t, err)
	assert.False(t, exists)

	testPassword := "secure-admin-password-123"
	adminPrincipal, err := adminCreator.CreateAdminUser(testPassword)
	assert.NoError(t, err)
	assert.NotNil(t, adminPrincipal)

	exists, err = adminCreator.AdminUserExists()
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestAdminCreator_AdminUserExists_ByRole(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	adminPrincipal := &models.Principal{
		Username:     "superadmin",
		PasswordHash: "hashed_password",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	err = testDB.DB.Create(adminPrincipal).Error
	require.NoError(t, err)

	exists, err := adminCreator.AdminUserExists()
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestAdminCreator_CreateAdminUser_DatabaseTransaction(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	var initialCount int64
	err = testDB.DB.Table("principals").Count(&initialCount).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(0), initialCount)

	testPassword := "secure-admin-password-123"
	adminPrincipal, err := adminCreator.CreateAdminUser(testPassword)
	assert.NoError(t, err)
	assert.NotNil(t, adminPrincipal)

	var finalCount int64
	err = testDB.DB.Table("principals").Count(&finalCount).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), finalCount)

	var dbPrincipal models.Principal
	err = testDB.DB.First(&dbPrincipal).Error
	assert.NoError(t, err)
	assert.Equal(t, adminPrincipal.ID, dbPrincipal.ID)
	assert.Equal(t, "admin", dbPrincipal.Username)
	assert.Equal(t, models.RoleAdmin, dbPrincipal.Role)
}

func TestAdminCreator_PasswordHashing_Integration(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService("test-jwt-secret", time.Hour, 24*time.Hour, refreshTokenRepo)
	adminCreator := NewAdminCreator(testDB.DB, authService)

	testPasswords := []string{
		"simple-password-123",
		"Complex!Password@456",
		"very-long-password-with-many-characters-789",
		"P@ssw0rd!",
	}

	for i, testPassword := range testPasswords {
		t.Run("Password_"+string(rune('a'+i)), func(t *testing.T) {
			err := testDB.reset()
			require.NoError(t, err)

			err = testDB.runSQLMigrations()
			require.NoError(t, err)

			adminPrincipal, err := adminCreator.CreateAdminUser(testPassword)
			assert.NoError(t, err)
			assert.NotNil(t, adminPrincipal)

			assert.NotEqual(t, testPassword, adminPrincipal.PasswordHash)
			assert.True(t, len(adminPrincipal.PasswordHash) > len(testPassword))

			err = authService.VerifyPassword(testPassword, adminPrincipal.PasswordHash)
			assert.NoError(t, err, "Password should be verifiable for: %s", testPassword)

			err = authService.VerifyPassword("wrong-password", adminPrincipal.PasswordHash)
			assert.Error(t, err, "Wrong password should not be verifiable")
		})
	}
}
