package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voicelog/backend/internal/cache"
	"github.com/voicelog/backend/internal/logger"
	"go.uber.org/zap"
)

// RedisRateLimit is a fixed-window per-IP limiter backed by Redis, so it
// holds across multiple instances. Without Redis the limiter is a no-op.
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s", clientIP)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		val, err := redisClient.GetInt(ctx, key)
		if err != nil && err.Error() != "redis: nil" {
			// A broken limiter fails closed; letting everything through
			// would open the API while Redis is down.
			logger.Log.Error("rate limit check failed, rejecting request",
				logger.WithIP(clientIP), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			c.Abort()
			return
		}

		if val >= int64(maxRequests) {
			logger.Log.Warn("rate limit exceeded",
				logger.WithIP(clientIP),
				zap.Int("max_requests", maxRequests),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": window.Seconds(),
			})
			c.Abort()
			return
		}

		newVal, err := redisClient.IncrBy(ctx, key, 1)
		if err != nil {
			logger.Log.Error("rate limit increment failed, rejecting request",
				logger.WithIP(clientIP), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
			c.Abort()
			return
		}

		if newVal == 1 {
			if err := redisClient.Expire(ctx, key, window); err != nil {
				logger.Log.Warn("failed to set rate limit expiration",
					logger.WithIP(clientIP), zap.Error(err))
			}
		}

		c.Next()
	}
}
