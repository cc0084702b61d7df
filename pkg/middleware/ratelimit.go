package middleware

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/masteryyh/vidtube/pkg/customerrors"
	"github.com/masteryyh/vidtube/pkg/ratelimit"
	"github.com/masteryyh/vidtube/pkg/utils/response"
)

// RateLimitMiddleware limits requests per client address and route. When the
// limiter itself fails the request is let through.
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP() + ":" + c.FullPath()
		decision, err := limiter.Allow(c, key)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "rate limiter unavailable", "error", err, "key", key)
			c.Next()
			return
		}
		if !decision.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(decision.RetryAfter.Seconds()))))
			response.Abort(c, customerrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
