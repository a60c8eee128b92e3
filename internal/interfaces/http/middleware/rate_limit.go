package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	redisdb "github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/interfaces/http/response"
	pkgerrors "github.com/your-org/storefront/internal/pkg/errors"
	"github.com/your-org/storefront/internal/pkg/metrics"
)

// Limiter counts hits in fixed windows
type Limiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int, window time.Duration) (redisdb.Window, error)
}

// RateLimit limits requests per client IP per minute. Limiter failures let the request through.
func RateLimit(cfg *config.Config, limiter Limiter, m *metrics.Metrics, log logrus.FieldLogger) gin.HandlerFunc {
	limit := cfg.Security.RateLimitPerMinute

	return func(c *gin.Context) {
		if limiter == nil || limit <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		window, err := limiter.FixedWindowAllow(ctx, c.ClientIP(), limit, time.Minute)
		if err != nil {
			log.WithError(err).Warn("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(window.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(window.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(window.ResetAt.Unix(), 10))

		if !window.Allowed {
			m.IncRateLimited()
			retryAfter := int(time.Until(window.ResetAt).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			response.Error(c, pkgerrors.New(pkgerrors.CodeRateLimit, "Too many requests"))
			return
		}

		c.Next()
	}
}

// ensure the Redis client satisfies Limiter
var _ Limiter = (*redisdb.Client)(nil)
