package handlers

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

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/config"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickservice"
	"pickcoordinator/internal/repository"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *Handlers, *auth.Service, *repository.Repositories) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	repos := repository.NewRepositories(db)
	authService := auth.NewService("test-secret", time.Hour, 24*time.Hour, repos.RefreshTokens)
	svc := pickservice.New(repos.Requests, repos.Principals, nil, config.PickConfig{AutoModeThreshold: 10})
	h := New(svc, repos.Principals, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(authService.Middleware())

	router.POST("/requests/validate-name", h.ValidateName)
	router.POST("/requests", h.Create)
	router.GET("/requests", h.List)
	router.GET("/requests/:name", h.Get)
	router.DELETE("/requests/:name", h.Delete)
	router.POST("/requests/:name/start", h.Start)
	router.POST("/requests/:name/pause", h.Pause)
	router.POST("/requests/:name/resume", h.Resume)
	router.POST("/requests/:name/release", h.Release)
	router.POST("/requests/:name/cancel", h.Cancel)
	router.POST("/requests/:name/approve", h.Approve)
	router.POST("/requests/:name/submit", h.Submit)
	router.PATCH("/requests/:name/items/:upc", h.UpdateItem)
	router.POST("/requests/:name/items/:upc/shortage", h.SetItemShortage)

	return router, h, authService, repos
}

func mustCreateTestPrincipal(t *testing.T, repos *repository.Repositories, username string, role models.Role) *models.Principal {
	t.Helper()
	p := &models.Principal{Username: username, PasswordHash: "x", Role: role, Active: true}
	require.NoError(t, repos.Principals.Create(p))
	return p
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewBuffer(b)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRequest(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	alice := mustCreateTestPrincipal(t, repos, "alice", models.RoleRequester)
	token, err := authService.GenerateToken(alice)
	require.NoError(t, err)

	body := createRequestBody{
		Name:     "Monday Restock",
		Priority: models.PriorityNormal,
		Items: []createRequestItem{
			{UPC: "111", ProductName: "Widget", Quantity: 3},
		},
	}

	w := doRequest(router, "POST", "/requests", token, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var created models.Request
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "monday-restock", created.Name)
	assert.Equal(t, models.StatusPending, created.Status)
}

func TestCreateRequestRequiresAuth(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)

	w := doRequest(router, "POST", "/requests", "", createRequestBody{
		Name:  "No Auth",
		Items: []createRequestItem{{UPC: "1", ProductName: "X", Quantity: 1}},
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRequestForbiddenForPicker(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	bob := mustCreateTestPrincipal(t, repos, "bob", models.RolePicker)
	token, err := authService.GenerateToken(bob)
	require.NoError(t, err)

	w := doRequest(router, "POST", "/requests", token, createRequestBody{
		Name:  "Picker Attempt",
		Items: []createRequestItem{{UPC: "1", ProductName: "X", Quantity: 1}},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetAndListRequests(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	alice := mustCreateTestPrincipal(t, repos, "alice", models.RoleRequester)
	token, err := authService.GenerateToken(alice)
	require.NoError(t, err)

	createW := doRequest(router, "POST", "/requests", token, createRequestBody{
		Name:     "Shelf Check",
		Priority: models.PriorityUrgent,
		Items:    []createRequestItem{{UPC: "222", ProductName: "Gadget", Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, createW.Code)

	getW := doRequest(router, "GET", "/requests/shelf-check", token, nil)
	assert.Equal(t, http.StatusOK, getW.Code)

	listW := doRequest(router, "GET", "/requests", token, nil)
	assert.Equal(t, http.StatusOK, listW.Code)

	var listResp struct {
		Data       []models.Request `json:"data"`
		TotalCount int64             `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(listW.Body.Bytes(), &listResp))
	assert.Equal(t, int64(1), listResp.TotalCount)
}

func TestGetRequestNotFound(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	alice := mustCreateTestPrincipal(t, repos, "alice", models.RoleRequester)
	token, err := authService.GenerateToken(alice)
	require.NoError(t, err)

	w := doRequest(router, "GET", "/requests/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartPickingLifecycle(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	alice := mustCreateTestPrincipal(t, repos, "alice", models.RoleRequester)
	bob := mustCreateTestPrincipal(t, repos, "bob", models.RolePicker)
	aliceToken, err := authService.GenerateToken(alice)
	require.NoError(t, err)
	bobToken, err := authService.GenerateToken(bob)
	require.NoError(t, err)

	createW := doRequest(router, "POST", "/requests", aliceToken, createRequestBody{
		Name:  "Claim Me",
		Items: []createRequestItem{{UPC: "333", ProductName: "Thing", Quantity: 1}},
	})
	require.Equal(t, http.StatusCreated, createW.Code)

	startW := doRequest(router, "POST", "/requests/claim-me/start", bobToken, nil)
	require.Equal(t, http.StatusOK, startW.Code)

	var started models.Request
	require.NoError(t, json.Unmarshal(startW.Body.Bytes(), &started))
	assert.Equal(t, models.StatusInProgress, started.Status)

	// a second picker cannot steal the claim
	carol := mustCreateTestPrincipal(t, repos, "carol", models.RolePicker)
	carolToken, err := authService.GenerateToken(carol)
	require.NoError(t, err)

	conflictW := doRequest(router, "POST", "/requests/claim-me/pause", carolToken, nil)
	assert.NotEqual(t, http.StatusOK, conflictW.Code)
}

func TestUpdateItemAndSubmit(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	alice := mustCreateTestPrincipal(t, repos, "alice", models.RoleRequester)
	bob := mustCreateTestPrincipal(t, repos, "bob", models.RolePicker)
	aliceToken, err := authService.GenerateToken(alice)
	require.NoError(t, err)
	bobToken, err := authService.GenerateToken(bob)
	require.NoError(t, err)

	createW := doRequest(router, "POST", "/requests", aliceToken, createRequestBody{
		Name:  "Pick And Submit",
		Items: []createRequestItem{{UPC: "444", ProductName: "Box", Quantity: 2}},
	})
	require.Equal(t, http.StatusCreated, createW.Code)
	require.Equal(t, http.StatusOK, doRequest(router, "POST", "/requests/pick-and-submit/start", bobToken, nil).Code)

	one := 1
	updateW := doRequest(router, "PATCH", "/requests/pick-and-submit/items/444", bobToken, updateItemBody{Increment: &one})
	require.Equal(t, http.StatusOK, updateW.Code)

	absolute := 2
	updateW2 := doRequest(router, "PATCH", "/requests/pick-and-submit/items/444", bobToken, updateItemBody{Absolute: &absolute})
	require.Equal(t, http.StatusOK, updateW2.Code)

	submitW := doRequest(router, "POST", "/requests/pick-and-submit/submit", bobToken, submitRequestBody{})
	assert.Equal(t, http.StatusOK, submitW.Code)

	var submitResp struct {
		Request models.Request `json:"request"`
	}
	require.NoError(t, json.Unmarshal(submitW.Body.Bytes(), &submitResp))
	assert.Equal(t, models.StatusCompleted, submitResp.Request.Status)
}

func TestSetItemShortageRejectsInvalidReason(t *testing.T) {
	router, _, authService, repos := setupTestRouter(t)
	alice := mustCreateTestPrincipal(t, repos, "alice", models.RoleRequester)
	bob := mustCreateTestPrincipal(t, repos, "bob", models.RolePicker)
	aliceToken, err := authService.GenerateToken(alice)
	require.NoError(t, err)
	bobToken, err := authService.GenerateToken(bob)
	require.NoError(t, err)

	require.Equal(t, http.StatusCreated, doRequest(router, "POST", "/requests", aliceToken, createRequestBody{
		Name:  "Shortage Case",
		Items: []createRequestItem{{UPC: "555", ProductName: "Case", Quantity: 4}},
	}).Code)
	require.Equal(t, http.StatusOK, doRequest(router, "POST", "/requests/shortage-case/start", bobToken, nil).Code)

	w := doRequest(router, "POST", "/requests/shortage-case/items/555/shortage", bobToken, setItemShortageBody{
		Reason: models.ShortageReason("bogus"),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
