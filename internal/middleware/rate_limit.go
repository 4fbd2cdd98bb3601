package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/themancarve/tickets/internal/helpers"
)

const (
	rateLimitWindow   = 15 * time.Minute
	rateLimitRequests = 100
)

// RateLimit applies a fixed-window per-IP limit backed by Redis. The
// counter key expires with the window, so limits reset without cleanup.
// Redis failures let the request through rather than blocking traffic.
func RateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s", c.ClientIP())
		ctx := c.Request.Context()

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("rate limit: redis unavailable: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(ctx, key, rateLimitWindow)
		}
		if count > rateLimitRequests {
			helpers.RespondWithError(c, http.StatusTooManyRequests, "Too many requests, please try again later.")
			c.Abort()
			return
		}
		c.Next()
	}
}
