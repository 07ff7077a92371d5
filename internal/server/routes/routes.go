package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pickcoordinator/internal/auth"
	"pickcoordinator/internal/catalog"
	"pickcoordinator/internal/config"
	"pickcoordinator/internal/database"
	"pickcoordinator/internal/handlers"
	"pickcoordinator/internal/logger"
	"pickcoordinator/internal/observability/metrics"
	"pickcoordinator/internal/picklog"
	"pickcoordinator/internal/pickservice"
	"pickcoordinator/internal/reaper"
	"pickcoordinator/internal/repository"
	"pickcoordinator/internal/server/middleware"
	"pickcoordinator/internal/ws"
)

// Setup configures all routes for the application and starts the
// background reaper. It is called once at server startup.
func Setup(router *gin.Engine, cfg *config.Config, db *database.DB, m *metrics.Metrics) {
	middleware.SetupSwaggerRoutes(router, cfg)

	router.GET("/ready", readinessCheck(db))
	router.GET("/live", livenessCheck)

	repos := repository.NewRepositories(db.Postgres)

	authService := auth.NewService(cfg.JWT.Secret, cfg.Pick.AccessTokenTTL, cfg.Pick.RefreshTokenTTL, repos.RefreshTokens)
	authHandlers := auth.NewHandlers(authService, repos.Principals)

	cat, err := catalog.New(cfg.Pick.ProductsFile)
	if err != nil {
		logger.Warnf("product catalog not loaded from %s: %v", cfg.Pick.ProductsFile, err)
		cat = nil
	}

	logWriter := picklog.New(cfg.Pick.LogDirectory)
	pickSvc := pickservice.New(repos.Requests, repos.Principals, logWriter, cfg.Pick)
	pickSvc.SetMetrics(m)

	reap := reaper.New(repos.Requests, db.Redis, cfg.Pick)
	reap.SetMetrics(m)
	reap.Start(context.Background())

	pickHandlers := handlers.New(pickSvc, repos.Principals, cat)
	adminHandlers := handlers.NewAdmin(reap)
	sessionHandler := ws.New(pickSvc, authService, repos.Principals, m)

	validateNameLimit := middleware.RedisRateLimit(db.Redis, "validate-name", 30, time.Minute)

	loginLimit := middleware.LoginRateLimit()
	principalAdminLimit := middleware.PrincipalAdminRateLimit()

	// Authentication routes.
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", loginLimit, authHandlers.Login)
		authGroup.POST("/refresh", loginLimit, authHandlers.Refresh)
		authGroup.GET("/me", authService.Middleware(), authHandlers.Me)
		authGroup.POST("/change-password", authService.Middleware(), authHandlers.ChangePassword)

		// Admin-only principal management (supplemented feature: spec.md
		// assumes principals already exist but never says how new ones are
		// provisioned beyond the startup admin seed).
		authGroup.POST("/principals", principalAdminLimit, authService.Middleware(), authService.RequireAdmin(), authHandlers.CreatePrincipal)
		authGroup.GET("/principals", authService.Middleware(), authService.RequireAdmin(), authHandlers.ListPrincipals)
		authGroup.GET("/principals/:id", authService.Middleware(), authService.RequireAdmin(), authHandlers.GetPrincipal)
		authGroup.PUT("/principals/:id", principalAdminLimit, authService.Middleware(), authService.RequireAdmin(), authHandlers.UpdatePrincipal)
		authGroup.DELETE("/principals/:id", principalAdminLimit, authService.Middleware(), authService.RequireAdmin(), authHandlers.DeletePrincipal)
	}

	v1 := router.Group("/api/v1")
	{
		requests := v1.Group("/pick-requests")
		requests.Use(authService.Middleware())
		{
			requests.POST("/validate-name", validateNameLimit, pickHandlers.ValidateName)
			requests.POST("", pickHandlers.Create)
			requests.GET("", pickHandlers.List)
			requests.GET("/:name", pickHandlers.Get)
			requests.DELETE("/:name", pickHandlers.Delete)

			requests.POST("/:name/start", pickHandlers.Start)
			requests.POST("/:name/pause", pickHandlers.Pause)
			requests.POST("/:name/resume", pickHandlers.Resume)
			requests.POST("/:name/release", pickHandlers.Release)
			requests.POST("/:name/cancel", pickHandlers.Cancel)
			requests.POST("/:name/approve", pickHandlers.Approve)
			requests.POST("/:name/submit", pickHandlers.Submit)

			requests.PATCH("/:name/items/:upc", pickHandlers.UpdateItem)
			requests.POST("/:name/items/:upc/shortage", pickHandlers.SetItemShortage)
		}

		// The WebSocket upgrade validates its own bearer token (query
		// parameter or Sec-WebSocket-Protocol header) since the browser
		// upgrade request cannot carry an Authorization header; it is
		// deliberately outside the JWT middleware group above.
		v1.GET("/pick-requests/:name/session", sessionHandler.Serve)

		catalogGroup := v1.Group("/catalog")
		catalogGroup.Use(authService.Middleware())
		{
			catalogGroup.GET("/upc/:upc", pickHandlers.LookupUPC)
			catalogGroup.GET("/search", pickHandlers.Search)
		}

		admin := v1.Group("/admin")
		admin.Use(authService.Middleware(), authService.RequireAdmin())
		{
			admin.GET("/cleanup-stats", adminHandlers.CleanupStats)
		}
	}
}

// readinessCheck indicates if the service is ready to accept traffic
func readinessCheck(db *database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if db.IsHealthy(ctx) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ready",
			})
		} else {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"reason": "database_unhealthy",
			})
		}
	}
}

// livenessCheck indicates if the service is alive
func livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
