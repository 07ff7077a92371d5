package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/config"
	"pickcoordinator/internal/models"
	"pickcoordinator/internal/pickservice"
	"pickcoordinator/internal/repository"
)

func setupTestSessionServer(t *testing.T) (*httptest.Server, *auth.Service, *repository.Repositories) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	repos := repository.NewRepositories(db)
	authService := auth.NewService("test-secret", time.Hour, 24*time.Hour, repos.RefreshTokens)
	svc := pickservice.New(repos.Requests, repos.Principals, nil, config.PickConfig{AutoModeThreshold: 10})
	handler := New(svc, authService, repos.Principals, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/requests/:name/session", handler.Serve)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, authService, repos
}

func dialSession(t *testing.T, srv *httptest.Server, name, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/requests/" + name + "/session?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSessionRejectsMissingToken(t *testing.T) {
	srv, _, _ := setupTestSessionServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/requests/anything/session"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 401, resp.StatusCode)
}

func TestSessionAppliesScan(t *testing.T) {
	srv, authService, repos := setupTestSessionServer(t)

	alice := &models.Principal{Username: "alice", PasswordHash: "x", Role: models.RoleRequester, Active: true}
	require.NoError(t, repos.Principals.Create(alice))
	bob := &models.Principal{Username: "bob", PasswordHash: "x", Role: models.RolePicker, Active: true}
	require.NoError(t, repos.Principals.Create(bob))

	svc := pickservice.New(repos.Requests, repos.Principals, nil, config.PickConfig{AutoModeThreshold: 10})
	ctx := context.Background()
	_, err := svc.CreateRequest(ctx, alice, pickservice.CreateInput{
		Name:  "Scan Test",
		Items: []pickservice.ItemInput{{UPC: "999", ProductName: "Scanner Target", Quantity: 2}},
	})
	require.NoError(t, err)
	_, err = svc.StartPicking(ctx, bob, "scan-test")
	require.NoError(t, err)

	bobToken, err := authService.GenerateToken(bob)
	require.NoError(t, err)

	conn := dialSession(t, srv, "scan-test", bobToken)

	require.NoError(t, conn.WriteJSON(scanMessage{UPC: "999"}))
	var result scanResult
	require.NoError(t, conn.ReadJSON(&result))
	require.Equal(t, "applied", result.Status)
	require.Equal(t, 1, result.Request.Items[0].PickedQty)

	// immediate re-scan of the same UPC is debounced
	require.NoError(t, conn.WriteJSON(scanMessage{UPC: "999"}))
	var debounced scanResult
	require.NoError(t, conn.ReadJSON(&debounced))
	require.Equal(t, "debounced", debounced.Status)
}
