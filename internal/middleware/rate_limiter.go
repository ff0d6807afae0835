package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/lernwerk/backend/internal/config"
)

// RateLimiter is a fixed-window per-IP limiter backed by redis. Redis being
// down never blocks a request; the limiter just steps aside.
func RateLimiter(redisClient *redis.Client, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		key := "rate_limit:" + c.ClientIP()

		count, err := bumpCounter(ctx, redisClient, key, cfg.RateLimitDuration)
		if err != nil {
			log.Printf("[RateLimit] redis unavailable, passing through: %v", err)
			c.Next()
			return
		}

		remaining := cfg.RateLimitRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.RateLimitRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))

		if count > cfg.RateLimitRequests {
			ttl, _ := redisClient.TTL(ctx, key).Result()
			c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests",
				"retry_after": ttl.Seconds(),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// bumpCounter increments the window counter, starting the window on the first
// hit.
func bumpCounter(ctx context.Context, client *redis.Client, key string, window time.Duration) (int, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err
		}
	}
	return int(count), nil
}
