package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pickcoordinator/internal/models"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	ClaimsContextKey    = "claims"
)

// Middleware authenticates the bearer token and stores its claims in the
// request context for downstream handlers.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token required"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			switch err {
			case ErrTokenExpired:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			case ErrInvalidToken:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed"})
			}
			c.Abort()
			return
		}

		// Store claims in context for use in handlers
		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// RequireAdmin creates middleware that rejects non-admin principals. Only a
// handful of endpoints need a flat role gate (principal management, reaper
// stats); every pick-request operation instead goes through auth.Can, which
// also accounts for ownership.
func (s *Service) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetCurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}
		if claims.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Administrator role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCurrentUser extracts the authenticated principal's claims from the
// Gin context.
func GetCurrentUser(c *gin.Context) (*Claims, bool) {
	claims, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil, false
	}

	principalClaims, ok := claims.(*Claims)
	return principalClaims, ok
}

// GetCurrentPrincipalID extracts the authenticated principal's ID.
func GetCurrentPrincipalID(c *gin.Context) (string, bool) {
	claims, ok := GetCurrentUser(c)
	if !ok {
		return "", false
	}
	return claims.PrincipalID, true
}

// GetCurrentRole extracts the authenticated principal's role.
func GetCurrentRole(c *gin.Context) (models.Role, bool) {
	claims, ok := GetCurrentUser(c)
	if !ok {
		return "", false
	}
	return claims.Role, true
}
