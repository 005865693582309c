package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"travel-ledger/pkg/logger"
	"travel-ledger/pkg/response"
)

const rateLimitPrefix = "travel-ledger:ratelimit"

// NewLimiter builds a per-IP limiter from a formatted rate such as "300-M".
// Counters live in Redis when client is non-nil, in process memory otherwise.
func NewLimiter(formatted string, client *redis.Client) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}

	var store limiter.Store
	if client != nil {
		store, err = sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}
	return limiter.New(store, rate), nil
}

// RateLimit rejects requests from an IP once it exceeds the limiter's rate.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		result, err := l.Get(c.Request.Context(), ip)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("ip", ip).Error("Failed to get rate limit context")
			response.InternalError(c, "Rate limit check failed", "")
			c.Abort()
			return
		}

		if result.Reached {
			logger.GetLogger().WithFields(map[string]interface{}{
				"ip":    ip,
				"limit": result.Limit,
			}).Warn("Rate limit exceeded")
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", "")
			c.Abort()
			return
		}

		c.Next()
	}
}
