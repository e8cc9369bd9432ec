package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimit caps requests per client IP per second using a Redis counter.
// When Redis is unavailable the request is allowed through; throttling is
// not worth failing the whole API for.
func RateLimit(rdb *redis.Client, maxRequests int) gin.HandlerFunc {
	if rdb == nil {
		panic("redis client cannot be nil for RateLimit middleware")
	}
	return func(c *gin.Context) {
		key := "tb:ratelimit:" + c.ClientIP()
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			logrus.WithError(err).Warn("Rate limit check failed, allowing request")
			c.Next()
			return
		}
		// The window starts at the first request. Refreshing the expiry on
		// every increment would keep a steady sender's counter alive forever
		// and eventually reject traffic that never exceeded the limit.
		if count == 1 {
			if err := rdb.Expire(ctx, key, time.Second).Err(); err != nil {
				logrus.WithError(err).Warn("Failed to set rate limit window expiry")
			}
		}

		if count > int64(maxRequests) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}
		c.Next()
	}
}
