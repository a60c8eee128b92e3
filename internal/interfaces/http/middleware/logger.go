// internal/interfaces/http/middleware/logger.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/interfaces/http/response"
)

// Logger logs every HTTP request with logrus and exposes a request-scoped entry to handlers
func Logger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		entry := log.WithField("request_id", GetRequestID(c))
		response.SetLogger(c, entry)

		c.Next()

		fields := logrus.Fields{
			"method":        c.Request.Method,
			"path":          c.Request.URL.Path,
			"route":         c.FullPath(),
			"status_code":   c.Writer.Status(),
			"latency":       time.Since(start).String(),
			"client_ip":     c.ClientIP(),
			"user_agent":    c.Request.UserAgent(),
			"response_size": c.Writer.Size(),
		}
		// session ids are bearer credentials for guest carts and stay out of logs
		if key := GetOwnerFromContext(c); !key.IsZero() {
			fields["owner"] = key.Kind()
			if userID, ok := key.UserID(); ok {
				fields["user_id"] = userID
			}
		}
		if len(c.Errors) > 0 {
			fields["error"] = c.Errors.String()
		}

		entry = entry.WithFields(fields)
		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("HTTP request completed with server error")
		case status >= 400:
			entry.Warn("HTTP request completed with client error")
		default:
			entry.Info("HTTP request completed successfully")
		}
	}
}
