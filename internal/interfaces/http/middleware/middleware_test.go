package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/owner"
	redisdb "github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Storefront"},
		JWT: config.JWTConfig{
			Secret:            "middleware-test-secret",
			AccessTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{
			RateLimitPerMinute: 2,
			CORSAllowedOrigins: []string{"https://shop.example.com", "*.example.org"},
			CORSAllowedMethods: []string{"GET", "POST"},
			CORSAllowedHeaders: []string{"Content-Type", "Authorization"},
		},
		Session: config.SessionConfig{
			CookieName: "session_id",
			MaxAge:     3600,
		},
	}
}

func identityRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(OptionalAuthMiddleware(cfg), Identity(cfg))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, GetOwnerFromContext(c).String())
	})
	return router
}

func TestIdentityPrefersAuthenticatedUser(t *testing.T) {
	cfg := testConfig()
	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(12)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "existing"})
	rec := httptest.NewRecorder()
	identityRouter(cfg).ServeHTTP(rec, req)

	assert.Equal(t, "user:12", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestIdentityUsesExistingSession(t *testing.T) {
	cfg := testConfig()
	sessionID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	rec := httptest.NewRecorder()
	identityRouter(cfg).ServeHTTP(rec, req)

	assert.Equal(t, "session:"+sessionID, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestIdentityIssuesSession(t *testing.T) {
	cfg := testConfig()
	tests := []struct {
		name   string
		header string
		cookie string
	}{
		{"no credentials", "", ""},
		{"invalid token", "Bearer nope", ""},
		{"cookie is not a uuid", "", "abc-123"},
		{"cookie is invalid utf-8", "", "%ff"},
		{"cookie is too long", "", strings.Repeat("a", 101)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", "session_id="+tt.cookie)
			}
			rec := httptest.NewRecorder()
			identityRouter(cfg).ServeHTTP(rec, req)

			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, "session_id", cookies[0].Name)
			assert.True(t, cookies[0].HttpOnly)
			assert.Equal(t, 3600, cookies[0].MaxAge)
			assert.Equal(t, "session:"+cookies[0].Value, rec.Body.String())
			_, err := uuid.Parse(cookies[0].Value)
			assert.NoError(t, err)
		})
	}
}

func TestGetOwnerFromContextWithoutIdentity(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, owner.Key{}, GetOwnerFromContext(c))
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "trace-1", rec.Body.String())
}

func TestLoggerRecordsOwnerAndStatus(t *testing.T) {
	log, hook := test.NewNullLogger()
	cfg := testConfig()

	router := gin.New()
	router.Use(RequestID(), Logger(log), Identity(cfg))
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	sessionID := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status_code"])
	assert.Equal(t, "session", entry.Data["owner"])
	assert.NotContains(t, entry.Data, "user_id")
	assert.NotEmpty(t, entry.Data["request_id"])
	for _, value := range entry.Data {
		assert.NotEqual(t, sessionID, value)
	}
}

func TestLoggerRecordsUserID(t *testing.T) {
	log, hook := test.NewNullLogger()
	cfg := testConfig()
	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(31)
	require.NoError(t, err)

	router := gin.New()
	router.Use(RequestID(), Logger(log), OptionalAuthMiddleware(cfg), Identity(cfg))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "user", entry.Data["owner"])
	assert.Equal(t, uint(31), entry.Data["user_id"])
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(testConfig()))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://shop.example.com", true},
		{"https://api.example.org", true},
		{"https://evilexample.org", false},
		{"https://other.com", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if tt.allowed {
			assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"), tt.origin)
		} else {
			assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"), tt.origin)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

type stubLimiter struct {
	hits int
	err  error
}

func (s *stubLimiter) FixedWindowAllow(_ context.Context, _ string, limit int, window time.Duration) (redisdb.Window, error) {
	if s.err != nil {
		return redisdb.Window{}, s.err
	}
	s.hits++
	remaining := limit - s.hits
	if remaining < 0 {
		remaining = 0
	}
	return redisdb.Window{
		Allowed:   s.hits <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(window),
	}, nil
}

func TestRateLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log, _ := test.NewNullLogger()

	router := gin.New()
	router.Use(RateLimit(testConfig(), &stubLimiter{}, m, log))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
}

func TestRateLimitFailsOpen(t *testing.T) {
	log, hook := test.NewNullLogger()
	router := gin.New()
	router.Use(RateLimit(testConfig(), &stubLimiter{err: errors.New("redis down")}, nil, log))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestTimeoutSetsDeadline(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(time.Second))
	router.GET("/", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	router := gin.New()
	router.Use(Metrics(metrics.New(reg)))
	router.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/7", nil))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, mf := range mfs {
		if mf.GetName() != "storefront_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" && label.GetValue() == "/items/:id" {
					found = true
				}
			}
		}
	}
	assert.True(t, found)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeaders())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
