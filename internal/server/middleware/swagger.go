package middleware

import (
	"pickcoordinator/internal/config"

	"github.com/gin-gonic/gin"
)

// SetupSwaggerRoutes is a placeholder for API documentation wiring.
// The coordinator ships its API surface as swag annotation comments on
// the handler declarations instead of a served Swagger UI; there is no
// docs package to mount here.
func SetupSwaggerRoutes(router *gin.Engine, cfg *config.Config) {
}
