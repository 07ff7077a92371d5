package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pickcoordinator/internal/logger"
)

// RedisRateLimit caps requests per client IP to limit per window, counted in
// Redis so the guard holds across replicas. A Redis failure fails open
// (logged, request allowed) rather than taking the endpoint down with it.
func RedisRateLimit(client *redis.Client, keyPrefix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("%s:%s", keyPrefix, c.ClientIP())
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warnf("redis rate limit check failed, allowing request: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited", "message": "too many requests, slow down"})
			c.Abort()
			return
		}

		c.Next()
	}
}
