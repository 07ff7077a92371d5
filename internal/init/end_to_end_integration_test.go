package init

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/database"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/repository"
)

func TestEndToEnd_CompleteInitializationWorkflow(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		} else {
			os.Unsetenv("DEFAULT_ADMIN_PASSWORD")
		}
	}()
	testPassword := "secure-admin-password-e2e-test"
	os.Setenv("DEFAULT_ADMIN_PASSWORD", testPassword)

	service, err := NewInitService(testDB.Config)
	require.NoError(t, err)
	defer service.Close()

	service.db = testDB.DB
	service.safetyChecker = NewSafetyChecker(service.db)
	service.migrator = database.NewMigrationManager(service.db, "migrations")

	startTime := time.Now()

	err = service.Initialize()
	assert.NoError(t, err)

	duration := time.Since(startTime)
	assert.Less(t, duration, 30*time.Second, "Initialization should complete within 30 seconds")

	// === VERIFY DATABASE SCHEMA ===

	var migrationCount int64
	err = testDB.DB.Table("schema_migrations").Count(&migrationCount).Error
	assert.NoError(t, err)
	assert.Greater(t, migrationCount, int64(0), "Should have migration records")

	expectedTables := []string{"principals", "requests", "items", "refresh_tokens"}
	for _, table := range expectedTables {
		var exists bool
		err = testDB.DB.Raw("SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = ?)", table).Scan(&exists).Error
		assert.NoError(t, err)
		assert.True(t, exists, "Table %s should exist", table)
	}

	// === VERIFY ADMIN PRINCIPAL ===

	var adminUser models.Principal
	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.NoError(t, err)

	assert.Equal(t, "admin", adminUser.Username)
	assert.Equal(t, models.RoleAdmin, adminUser.Role)
	assert.NotEmpty(t, adminUser.PasswordHash)
	assert.NotEqual(t, testPassword, adminUser.PasswordHash, "Password should be hashed")

	var totalPrincipalCount int64
	err = testDB.DB.Table("principals").Count(&totalPrincipalCount).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), totalPrincipalCount, "Should have exactly one principal")

	// === VERIFY PASSWORD AUTHENTICATION ===

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService(testDB.Config.JWT.Secret, time.Hour, 24*time.Hour, refreshTokenRepo)

	err = authService.VerifyPassword(testPassword, adminUser.PasswordHash)
	assert.NoError(t, err, "Admin password should be verifiable")

	err = authService.VerifyPassword("wrong-password", adminUser.PasswordHash)
	assert.Error(t, err, "Wrong password should not be verifiable")

	// === VERIFY DATABASE USAGE WITH THE NEW PRINCIPAL ===

	request := &models.Request{
		Name:      "Restock aisle 7",
		Notes:     "Created during end-to-end verification",
		Status:    models.StatusPending,
		Priority:  models.PriorityUrgent,
		CreatorID: adminUser.ID,
	}
	err = testDB.DB.Create(request).Error
	assert.NoError(t, err)
	assert.NotEmpty(t, request.ID)

	item := &models.Item{
		RequestID:    request.ID,
		UPC:          "012345678905",
		ProductName:  "Widget",
		RequestedQty: 5,
	}
	err = testDB.DB.Create(item).Error
	assert.NoError(t, err)
	assert.NotEmpty(t, item.ID)

	var requestWithItems models.Request
	err = testDB.DB.Preload("Items").Where("id = ?", request.ID).First(&requestWithItems).Error
	assert.NoError(t, err)
	assert.Len(t, requestWithItems.Items, 1, "Request should have one item")
	assert.Equal(t, item.ID, requestWithItems.Items[0].ID)

	var searchResults []models.Request
	err = testDB.DB.Where("name ILIKE ?", "%Restock%").Find(&searchResults).Error
	assert.NoError(t, err)
	assert.Len(t, searchResults, 1, "Should find the test request")
	assert.Equal(t, request.ID, searchResults[0].ID)
}

func TestEndToEnd_InitializationFailure_Recovery(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	err := testDB.runSQLMigrations()
	require.NoError(t, err)

	existingPrincipal := &models.Principal{
		Username:     "existing_picker",
		PasswordHash: "hashed_password",
		Role:         models.RolePicker,
		Active:       true,
	}
	err = testDB.DB.Create(existingPrincipal).Error
	require.NoError(t, err)

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		} else {
			os.Unsetenv("DEFAULT_ADMIN_PASSWORD")
		}
	}()
	os.Setenv("DEFAULT_ADMIN_PASSWORD", "test-admin-password-123")

	service, err := NewInitService(testDB.Config)
	require.NoError(t, err)
	defer service.Close()

	service.db = testDB.DB
	service.safetyChecker = NewSafetyChecker(service.db)
	service.migrator = database.NewMigrationManager(service.db, "migrations")

	err = service.Initialize()
	assert.Error(t, err)

	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)
	assert.Equal(t, ErrorTypeSafety, initErr.Type)
	assert.Contains(t, initErr.Message, "Database safety check failed")

	var principalCount int64
	err = testDB.DB.Table("principals").Count(&principalCount).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), principalCount, "Should still have only the existing principal")

	var adminUser models.Principal
	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.Error(t, err, "Admin principal should not exist")

	// === RECOVERY TEST ===

	err = testDB.reset()
	require.NoError(t, err)

	err = service.Initialize()
	assert.NoError(t, err)

	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.NoError(t, err)
	assert.Equal(t, "admin", adminUser.Username)
	assert.Equal(t, models.RoleAdmin, adminUser.Role)
}

func TestEndToEnd_MultipleInitializationAttempts(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		} else {
			os.Unsetenv("DEFAULT_ADMIN_PASSWORD")
		}
	}()
	os.Setenv("DEFAULT_ADMIN_PASSWORD", "test-admin-password-123")

	service1, err := NewInitService(testDB.Config)
	require.NoError(t, err)
	defer service1.Close()
	service1.db = testDB.DB
	service1.safetyChecker = NewSafetyChecker(service1.db)
	service1.migrator = database.NewMigrationManager(service1.db, "migrations")

	err = service1.Initialize()
	assert.NoError(t, err)

	var adminUser models.Principal
	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.NoError(t, err)
	firstAdminID := adminUser.ID

	service2, err := NewInitService(testDB.Config)
	require.NoError(t, err)
	defer service2.Close()
	service2.db = testDB.DB
	service2.safetyChecker = NewSafetyChecker(service2.db)
	service2.migrator = database.NewMigrationManager(service2.db, "migrations")

	err = service2.Initialize()
	assert.Error(t, err)

	var initErr *InitError
	assert.ErrorAs(t, err, &initErr)
	assert.Equal(t, ErrorTypeSafety, initErr.Type)

	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.NoError(t, err)
	assert.Equal(t, firstAdminID, adminUser.ID, "Admin principal should be unchanged")

	var adminCount int64
	err = testDB.DB.Model(&models.Principal{}).Where("username = ?", "admin").Count(&adminCount).Error
	assert.NoError(t, err)
	assert.Equal(t, int64(1), adminCount, "Should have exactly one admin principal")
}

func TestEndToEnd_InitializationWithCustomConfiguration(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	testDB.Config.JWT.Secret = "custom-jwt-secret-for-e2e-test"
	testDB.Config.Log.Level = "debug"
	testDB.Config.Log.Format = "text"

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		} else {
			os.Unsetenv("DEFAULT_ADMIN_PASSWORD")
		}
	}()
	customPassword := "custom-secure-password-e2e"
	os.Setenv("DEFAULT_ADMIN_PASSWORD", customPassword)

	service, err := NewInitService(testDB.Config)
	require.NoError(t, err)
	defer service.Close()

	service.db = testDB.DB
	service.safetyChecker = NewSafetyChecker(service.db)
	service.migrator = database.NewMigrationManager(service.db, "migrations")

	err = service.Initialize()
	assert.NoError(t, err)

	var adminUser models.Principal
	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.NoError(t, err)

	refreshTokenRepo := repository.NewRefreshTokenRepository(testDB.DB)
	authService := auth.NewService(testDB.Config.JWT.Secret, time.Hour, 24*time.Hour, refreshTokenRepo)
	err = authService.VerifyPassword(customPassword, adminUser.PasswordHash)
	assert.NoError(t, err, "Custom password should be verifiable")

	token, err := authService.GenerateToken(&adminUser)
	assert.NoError(t, err)
	assert.NotEmpty(t, token, "Should be able to generate JWT token")

	claims, err := authService.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, adminUser.ID.String(), claims.PrincipalID)
	assert.Equal(t, adminUser.Username, claims.Username)
	assert.Equal(t, adminUser.Role, claims.Role)
}

func TestEndToEnd_InitializationPerformance_Benchmarking(t *testing.T) {
	testDB := setupTestDatabase(t)
	defer testDB.cleanup(t)

	originalPassword := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	defer func() {
		if originalPassword != "" {
			os.Setenv("DEFAULT_ADMIN_PASSWORD", originalPassword)
		} else {
			os.Unsetenv("DEFAULT_ADMIN_PASSWORD")
		}
	}()
	os.Setenv("DEFAULT_ADMIN_PASSWORD", "test-admin-password-123")

	service, err := NewInitService(testDB.Config)
	require.NoError(t, err)
	defer service.Close()

	service.db = testDB.DB
	service.safetyChecker = NewSafetyChecker(service.db)
	service.migrator = database.NewMigrationManager(service.db, "migrations")

	startTime := time.Now()
	err = service.Initialize()
	duration := time.Since(startTime)

	assert.NoError(t, err)
	assert.Less(t, duration, 10*time.Second, "Initialization should complete within 10 seconds")

	t.Logf("Initialization completed in: %v", duration)
	t.Logf("Performance benchmark: %v", duration.Milliseconds())

	var adminUser models.Principal
	err = testDB.DB.Where("username = ?", "admin").First(&adminUser).Error
	assert.NoError(t, err)

	var migrationCount int64
	err = testDB.DB.Table("schema_migrations").Count(&migrationCount).Error
	assert.NoError(t, err)
	assert.Greater(t, migrationCount, int64(0))

	t.Logf("Migrations applied: %d", migrationCount)
	t.Logf("Admin principal created: %s (ID: %s)", adminUser.Username, adminUser.ID)
}
