package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pickcoordinator/internal/models"
	"pickcoordinator/internal/repository"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Principal{}, &models.RefreshToken{}))
	return db
}

func setupTestHandlers(t *testing.T) (*Handlers, *Service, repository.PrincipalRepository, *gin.Engine) {
	db := setupTestDB(t)
	principals := repository.NewPrincipalRepository(db)
	refreshTokens := repository.NewRefreshTokenRepository(db)
	service := NewService("test-secret", time.Hour, 24*time.Hour, refreshTokens)
	handlers := NewHandlers(service, principals)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	return handlers, service, principals, router
}

func createTestPrincipal(t *testing.T, service *Service, principals repository.PrincipalRepository, username string, role models.Role) *models.Principal {
	passwordHash, err := service.HashPassword("testpassword123")
	require.NoError(t, err)

	principal := &models.Principal{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
	}
	require.NoError(t, principals.Create(principal))
	return principal
}

func TestLogin(t *testing.T) {
	handlers, service, principals, router := setupTestHandlers(t)
	router.POST("/login", handlers.Login)

	principal := createTestPrincipal(t, service, principals, "testpicker", models.RolePicker)

	t.Run("successful login", func(t *testing.T) {
		body, err := json.Marshal(LoginRequest{Username: "testpicker", Password: "testpassword123"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

		assert.NotEmpty(t, response.AccessToken)
		assert.NotEmpty(t, response.RefreshToken)
		assert.Equal(t, principal.ID.String(), response.Principal.ID)
		assert.Equal(t, principal.Username, response.Principal.Username)
		assert.Equal(t, principal.Role, response.Principal.Role)
	})

	t.Run("invalid username", func(t *testing.T) {
		body, err := json.Marshal(LoginRequest{Username: "nonexistent", Password: "testpassword123"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid password", func(t *testing.T) {
		body, err := json.Marshal(LoginRequest{Username: "testpicker", Password: "wrongpassword"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/login", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid request body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/login", bytes.NewBuffer([]byte("not json")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreatePrincipal(t *testing.T) {
	handlers, service, principals, router := setupTestHandlers(t)
	router.POST("/principals", service.Middleware(), service.RequireAdmin(), handlers.CreatePrincipal)

	admin := createTestPrincipal(t, service, principals, "admin", models.RoleAdmin)
	adminToken, err := service.GenerateToken(admin)
	require.NoError(t, err)

	t.Run("successful creation", func(t *testing.T) {
		body, err := json.Marshal(CreatePrincipalRequest{Username: "newpicker", Password: "newpassword123", Role: models.RolePicker})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/principals", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response PrincipalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "newpicker", response.Username)
		assert.Equal(t, models.RolePicker, response.Role)
	})

	t.Run("duplicate username", func(t *testing.T) {
		body, err := json.Marshal(CreatePrincipalRequest{Username: "admin", Password: "newpassword123", Role: models.RolePicker})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/principals", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("invalid role", func(t *testing.T) {
		body, err := json.Marshal(CreatePrincipalRequest{Username: "invalidrole", Password: "newpassword123", Role: "not_a_role"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/principals", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("non-admin forbidden", func(t *testing.T) {
		picker := createTestPrincipal(t, service, principals, "pickerX", models.RolePicker)
		pickerToken, err := service.GenerateToken(picker)
		require.NoError(t, err)

		body, err := json.Marshal(CreatePrincipalRequest{Username: "another", Password: "newpassword123", Role: models.RolePicker})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/principals", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+pickerToken)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestListPrincipals(t *testing.T) {
	handlers, service, principals, router := setupTestHandlers(t)
	router.GET("/principals", service.Middleware(), service.RequireAdmin(), handlers.ListPrincipals)

	admin := createTestPrincipal(t, service, principals, "admin", models.RoleAdmin)
	adminToken, err := service.GenerateToken(admin)
	require.NoError(t, err)

	createTestPrincipal(t, service, principals, "picker1", models.RolePicker)
	createTestPrincipal(t, service, principals, "requester1", models.RoleRequester)

	req := httptest.NewRequest("GET", "/principals", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response []PrincipalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Len(t, response, 3)
}

func TestMe(t *testing.T) {
	handlers, service, principals, router := setupTestHandlers(t)
	router.GET("/me", service.Middleware(), handlers.Me)

	principal := createTestPrincipal(t, service, principals, "testpicker", models.RolePicker)
	token, err := service.GenerateToken(principal)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response PrincipalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, principal.ID.String(), response.ID)
	assert.Equal(t, principal.Username, response.Username)
	assert.Equal(t, principal.Role, response.Role)
}

func TestChangePassword(t *testing.T) {
	handlers, service, principals, router := setupTestHandlers(t)
	router.POST("/change-password", service.Middleware(), handlers.ChangePassword)

	principal := createTestPrincipal(t, service, principals, "testpicker", models.RolePicker)
	token, err := service.GenerateToken(principal)
	require.NoError(t, err)

	t.Run("successful password change", func(t *testing.T) {
		body, err := json.Marshal(ChangePasswordRequest{CurrentPassword: "testpassword123", NewPassword: "newpassword456"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/change-password", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		updated, err := principals.GetByID(principal.ID)
		require.NoError(t, err)
		assert.NoError(t, service.VerifyPassword("newpassword456", updated.PasswordHash))
	})

	t.Run("invalid current password", func(t *testing.T) {
		body, err := json.Marshal(ChangePasswordRequest{CurrentPassword: "wrongpassword", NewPassword: "irrelevant123"})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/change-password", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestDeletePrincipalDeactivates(t *testing.T) {
	handlers, service, principals, router := setupTestHandlers(t)
	router.DELETE("/principals/:id", service.Middleware(), service.RequireAdmin(), handlers.DeletePrincipal)

	admin := createTestPrincipal(t, service, principals, "admin", models.RoleAdmin)
	adminToken, err := service.GenerateToken(admin)
	require.NoError(t, err)

	target := createTestPrincipal(t, service, principals, "soontoberetired", models.RolePicker)

	req := httptest.NewRequest("DELETE", "/principals/"+target.ID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)

	reloaded, err := principals.GetByID(target.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
}
