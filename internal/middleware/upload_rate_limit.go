package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lernwerk/backend/internal/config"
)

// UploadRateLimit caps how many upload sessions a client may start within
// the configured window. Redis failures never block an upload.
func UploadRateLimit(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost || !strings.HasSuffix(c.Request.URL.Path, "/uploads") {
			c.Next()
			return
		}

		ctx := context.Background()
		key := fmt.Sprintf("upload_limit:%s", c.ClientIP())

		count, err := redisClient.Get(ctx, key).Int()
		if err == redis.Nil {
			if err := redisClient.Set(ctx, key, 1, cfg.UploadRateWindow).Err(); err != nil {
				c.Next()
				return
			}
		} else if err != nil {
			// Redis error - don't block the upload
			c.Next()
			return
		} else if count >= cfg.UploadRateLimit {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":             "upload_rate_limit_exceeded",
				"message":           "Too many upload sessions. Please try again later.",
				"retry_after_hours": int(ttl.Hours()),
				"uploads_in_window": count,
				"max_uploads":       cfg.UploadRateLimit,
			})
			c.Abort()
			return
		} else {
			redisClient.Incr(ctx, key)
		}

		c.Next()
	}
}
