package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/auth"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"github.com/your-org/storefront/internal/testutil"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "Storefront", Version: "test", Environment: "test"},
		Server: config.ServerConfig{
			Port:           "0",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		JWT: config.JWTConfig{Secret: "server-test-secret", AccessTokenExpiry: time.Hour},
		Session: config.SessionConfig{
			CookieName: "session_id",
			MaxAge:     3600,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type testEnv struct {
	cfg     *config.Config
	db      *gorm.DB
	handler http.Handler
	checks  map[string]HealthChecker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := testConfig()
	db := testutil.NewDB(t)
	log, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()

	env := &testEnv{cfg: cfg, db: db, checks: map[string]HealthChecker{
		"database": checkFunc(func(context.Context) error { return nil }),
	}}
	server := NewServer(Options{
		Config:   cfg,
		DB:       db,
		Logger:   log,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Checks:   env.checks,
	})
	env.handler = server.Handler()
	return env
}

// visitor keeps the session cookie between requests like a browser would
type visitor struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
	token   string
}

func (e *testEnv) visitor(t *testing.T) *visitor {
	return &visitor{t: t, handler: e.handler}
}

func (v *visitor) do(method, path string, payload any) (int, map[string]any) {
	v.t.Helper()

	var req *http.Request
	switch body := payload.(type) {
	case nil:
		req = httptest.NewRequest(method, path, nil)
	case url.Values:
		req = httptest.NewRequest(method, path, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		raw, err := json.Marshal(body)
		require.NoError(v.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range v.cookies {
		req.AddCookie(cookie)
	}
	if v.token != "" {
		req.Header.Set("Authorization", "Bearer "+v.token)
	}

	rec := httptest.NewRecorder()
	v.handler.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		v.cookies = cookies
	}

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(v.t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec.Code, decoded
}

func TestCartScenario(t *testing.T) {
	env := newTestEnv(t)
	prod := testutil.CreateProduct(t, env.db, "Headphones", "100.00",
		testutil.WithDiscount("80.00"), testutil.WithStock(5))
	s1 := env.visitor(t)

	status, body := s1.do(http.MethodPost, "/api/v1/cart/add", gin.H{"product_id": prod.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.0, body["cart_count"])
	require.Len(t, s1.cookies, 1)

	status, body = s1.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, status)
	items := body["cart_items"].([]any)
	require.Len(t, items, 1)
	line := items[0].(map[string]any)
	assert.Equal(t, "160.00", line["subtotal"])
	assert.Equal(t, "80.00", line["product"].(map[string]any)["final_price"])
	assert.Equal(t, "160.00", body["total"])
	assert.Equal(t, 1.0, body["count"])
	cartID := line["id"]

	status, body = s1.do(http.MethodPost, "/api/v1/cart/add", gin.H{"product_id": prod.ID, "quantity": 4})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])
	assert.Equal(t, false, body["success"])

	status, body = s1.do(http.MethodPost, "/api/v1/cart/update", gin.H{"cart_id": cartID, "quantity": 5})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "400.00", body["subtotal"])

	status, body = s1.do(http.MethodPost, "/api/v1/cart/remove", gin.H{"cart_id": cartID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 0.0, body["cart_count"])
}

func TestCartDefaultsQuantityAndAcceptsForms(t *testing.T) {
	env := newTestEnv(t)
	prod := testutil.CreateProduct(t, env.db, "Notebook", "4.25")
	v := env.visitor(t)

	status, body := v.do(http.MethodPost, "/api/v1/cart/add", url.Values{"product_id": {fmt.Sprint(prod.ID)}})
	require.Equal(t, http.StatusOK, status, body)

	status, body = v.do(http.MethodPost, "/api/v1/cart/add", url.Values{"product_id": {fmt.Sprint(prod.ID)}, "quantity": {"3"}})
	require.Equal(t, http.StatusOK, status, body)

	_, body = v.do(http.MethodGet, "/api/v1/cart", nil)
	line := body["cart_items"].([]any)[0].(map[string]any)
	assert.Equal(t, 4.0, line["quantity"])
	assert.Equal(t, "17.00", body["total"])

	_, body = v.do(http.MethodGet, "/api/v1/cart/count", nil)
	assert.Equal(t, 1.0, body["cart_count"])

	status, body = v.do(http.MethodPost, "/api/v1/cart/clear", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["cart_count"])
}

func TestCartValidation(t *testing.T) {
	env := newTestEnv(t)
	prod := testutil.CreateProduct(t, env.db, "Poster", "15.00")
	inactive := testutil.CreateProduct(t, env.db, "Old Poster", "15.00", testutil.Inactive())

	owner := env.visitor(t)
	status, _ := owner.do(http.MethodPost, "/api/v1/cart/add", gin.H{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, status)
	_, body := owner.do(http.MethodGet, "/api/v1/cart", nil)
	cartID := body["cart_items"].([]any)[0].(map[string]any)["id"]

	stranger := env.visitor(t)
	tests := []struct {
		name   string
		path   string
		body   any
		status int
		field  string
	}{
		{"missing product", "/api/v1/cart/add", gin.H{}, http.StatusUnprocessableEntity, "product_id"},
		{"unknown product", "/api/v1/cart/add", gin.H{"product_id": 999}, http.StatusUnprocessableEntity, "product_id"},
		{"zero quantity", "/api/v1/cart/add", gin.H{"product_id": prod.ID, "quantity": 0}, http.StatusUnprocessableEntity, "quantity"},
		{"inactive product", "/api/v1/cart/add", gin.H{"product_id": inactive.ID}, http.StatusBadRequest, ""},
		{"unknown cart line", "/api/v1/cart/update", gin.H{"cart_id": 999, "quantity": 1}, http.StatusUnprocessableEntity, "cart_id"},
		{"missing quantity", "/api/v1/cart/update", gin.H{"cart_id": cartID}, http.StatusUnprocessableEntity, "quantity"},
		{"foreign cart line update", "/api/v1/cart/update", gin.H{"cart_id": cartID, "quantity": 1}, http.StatusNotFound, ""},
		{"foreign cart line remove", "/api/v1/cart/remove", gin.H{"cart_id": cartID}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := stranger.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
			assert.Equal(t, false, body["success"])
			if tt.field != "" {
				assert.Contains(t, body["errors"], tt.field)
			}
		})
	}

	_, body = owner.do(http.MethodGet, "/api/v1/cart", nil)
	assert.Equal(t, 1.0, body["cart_items"].([]any)[0].(map[string]any)["quantity"])
}

func TestWishlistScenario(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateProduct(t, env.db, "Filler", "1.00")
	prod := testutil.CreateProduct(t, env.db, "Lantern", "22.00")
	s1 := env.visitor(t)

	status, body := s1.do(http.MethodPost, "/api/v1/wishlist/toggle", gin.H{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["in_wishlist"])
	assert.Equal(t, 1.0, body["wishlist_count"])

	_, body = s1.do(http.MethodPost, "/api/v1/wishlist/check", gin.H{"product_id": prod.ID})
	assert.Equal(t, true, body["in_wishlist"])

	_, body = s1.do(http.MethodGet, "/api/v1/wishlist", nil)
	entries := body["wishlist_items"].([]any)
	require.Len(t, entries, 1)
	assert.Equal(t, "Lantern", entries[0].(map[string]any)["product"].(map[string]any)["name"])

	status, body = s1.do(http.MethodPost, "/api/v1/wishlist/add", gin.H{"product_id": prod.ID})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ALREADY_EXISTS", body["code"])

	status, body = s1.do(http.MethodPost, "/api/v1/wishlist/toggle", gin.H{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["in_wishlist"])
	assert.Equal(t, 0.0, body["wishlist_count"])

	status, _ = s1.do(http.MethodPost, "/api/v1/wishlist/remove", gin.H{"product_id": prod.ID})
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s1.do(http.MethodPost, "/api/v1/wishlist/add", gin.H{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["wishlist_count"])

	status, body = s1.do(http.MethodPost, "/api/v1/wishlist/remove", gin.H{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0.0, body["wishlist_count"])

	status, body = s1.do(http.MethodPost, "/api/v1/wishlist/toggle", gin.H{"product_id": 12345})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body["errors"], "product_id")

	_, body = s1.do(http.MethodGet, "/api/v1/wishlist/count", nil)
	assert.Equal(t, 0.0, body["wishlist_count"])
}

func TestMalformedSessionCookieIsReplaced(t *testing.T) {
	env := newTestEnv(t)
	prod := testutil.CreateProduct(t, env.db, "Mug", "9.00")
	v := env.visitor(t)
	v.cookies = []*http.Cookie{{Name: "session_id", Value: "%ff"}}

	status, body := v.do(http.MethodPost, "/api/v1/cart/add", gin.H{"product_id": prod.ID})
	require.Equal(t, http.StatusOK, status, body)
	require.Len(t, v.cookies, 1)
	assert.NotEqual(t, "%ff", v.cookies[0].Value)

	status, body = v.do(http.MethodGet, "/api/v1/cart/count", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1.0, body["cart_count"])
}

func TestAuthenticatedUserOwnsRows(t *testing.T) {
	env := newTestEnv(t)
	prod := testutil.CreateProduct(t, env.db, "Bag", "70.00")

	token, err := auth.NewJWTManager(env.cfg).GenerateAccessToken(21)
	require.NoError(t, err)
	user := env.visitor(t)
	user.token = token

	status, _ := user.do(http.MethodPost, "/api/v1/cart/add", gin.H{"product_id": prod.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, user.cookies)

	var userID *uint
	require.NoError(t, env.db.Table("cart").Select("user_id").Row().Scan(&userID))
	require.NotNil(t, userID)
	assert.Equal(t, uint(21), *userID)

	anonymous := env.visitor(t)
	_, body := anonymous.do(http.MethodGet, "/api/v1/cart/count", nil)
	assert.Equal(t, 0.0, body["cart_count"])

	// a second device with the same token sees the same cart
	other := env.visitor(t)
	other.token = token
	_, body = other.do(http.MethodGet, "/api/v1/cart/count", nil)
	assert.Equal(t, 1.0, body["cart_count"])
}

func TestProductEndpoints(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 7; i++ {
		testutil.CreateProduct(t, env.db, fmt.Sprintf("Item %d", i), "10.00")
	}
	hidden := testutil.CreateProduct(t, env.db, "Hidden", "10.00", testutil.Inactive())
	v := env.visitor(t)

	status, body := v.do(http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 7.0, body["count"])

	_, body = v.do(http.MethodGet, "/api/v1/products/new-arrivals", nil)
	assert.Len(t, body["products"], 5)

	_, body = v.do(http.MethodGet, "/api/v1/products/best-sellers", nil)
	assert.Len(t, body["products"], 6)

	_, body = v.do(http.MethodGet, "/api/v1/products/new-arrivals?limit=2", nil)
	assert.Len(t, body["products"], 2)

	status, _ = v.do(http.MethodGet, "/api/v1/products/best-sellers?limit=0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = v.do(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", hidden.ID), nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = v.do(http.MethodGet, "/api/v1/products/1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "10.00", body["product"].(map[string]any)["price"])

	status, _ = v.do(http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t)
	prod := testutil.CreateProduct(t, env.db, "Gauge", "3.00")
	v := env.visitor(t)

	status, body := v.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = v.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	env.checks["redis"] = checkFunc(func(context.Context) error { return errors.New("down") })
	status, body = v.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["redis"])

	v.do(http.MethodPost, "/api/v1/cart/add", gin.H{"product_id": prod.ID})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_store_mutations_total{op="add",outcome="success",owner="session",store="cart"} 1`)
	assert.Contains(t, rec.Body.String(), `route="/api/v1/cart/add"`)

	status, body = v.do(http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}
