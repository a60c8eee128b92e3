// internal/interfaces/http/middleware/identity.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/owner"
)

const ownerKey = "owner_key"

// Identity resolves the owner key of every request. An authenticated user wins;
// otherwise the session cookie is used, issuing a new session id when it is missing
// or is not a uuid.
func Identity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID, ok := GetUserIDFromContext(c); ok {
			c.Set(ownerKey, owner.User(userID))
			c.Next()
			return
		}

		sessionID, ok := sessionFromCookie(c, cfg.Session.CookieName)
		if !ok {
			sessionID = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.Session.CookieName, sessionID, cfg.Session.MaxAge, "/", "", cfg.Session.Secure, true)
		}

		c.Set(ownerKey, owner.Session(sessionID))
		c.Next()
	}
}

// GetOwnerFromContext returns the owner key resolved by Identity
func GetOwnerFromContext(c *gin.Context) owner.Key {
	value, exists := c.Get(ownerKey)
	if !exists {
		return owner.Key{}
	}
	key, _ := value.(owner.Key)
	return key
}

// sessionFromCookie returns the canonical form of a uuid session cookie
func sessionFromCookie(c *gin.Context, name string) (string, bool) {
	raw, err := c.Cookie(name)
	if err != nil || raw == "" {
		return "", false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}
