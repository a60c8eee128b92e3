// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/interfaces/http/response"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"gorm.io/gorm"
)

// HealthChecker is a dependency probed by /ready
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options holds the dependencies of the HTTP server
type Options struct {
	Config   *config.Config
	DB       *gorm.DB
	Logger   *logrus.Logger
	Limiter  middleware.Limiter
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
	Checks   map[string]HealthChecker
}

// Server represents the HTTP server
type Server struct {
	opts       Options
	gin        *gin.Engine
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance with its routes registered
func NewServer(opts Options) *Server {
	if opts.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		opts:      opts,
		gin:       gin.New(),
		startedAt: time.Now(),
	}
	response.RegisterValidatorTagNames()

	if err := s.gin.SetTrustedProxies(opts.Config.Security.TrustedProxies); err != nil {
		opts.Logger.WithError(err).Warn("Invalid trusted proxies, trusting none")
		_ = s.gin.SetTrustedProxies(nil)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         ":" + opts.Config.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  opts.Config.Server.ReadTimeout,
		WriteTimeout: opts.Config.Server.WriteTimeout,
		IdleTimeout:  opts.Config.Server.IdleTimeout,
	}
	return s
}

// Handler exposes the router
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start serves HTTP until Stop is called
func (s *Server) Start() error {
	s.opts.Logger.WithFields(logrus.Fields{
		"port":     s.opts.Config.Server.Port,
		"base_url": fmt.Sprintf("http://localhost:%s/api/v1", s.opts.Config.Server.Port),
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.opts.Logger.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.opts.Logger.Info("HTTP server stopped gracefully")
	return nil
}

func (s *Server) setupMiddleware() {
	cfg := s.opts.Config

	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.opts.Logger))
	s.gin.Use(middleware.Metrics(s.opts.Metrics))
	s.gin.Use(middleware.CORS(cfg))
	s.gin.Use(middleware.SecurityHeaders())
	s.gin.Use(middleware.RateLimit(cfg, s.opts.Limiter, s.opts.Metrics, s.opts.Logger))
	s.gin.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(cfg.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	if s.opts.Config.Metrics.Enabled && s.opts.Gatherer != nil {
		s.gin.GET(s.opts.Config.Metrics.Path, gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := s.gin.Group("/api/v1")
	routes.SetupRoutes(apiV1, s.opts.DB, s.opts.Config, s.opts.Metrics)

	s.gin.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "Route not found",
		})
	})
}

// healthCheck reports liveness
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"timestamp":   time.Now().UTC(),
		"version":     s.opts.Config.App.Version,
		"environment": s.opts.Config.App.Environment,
	})
}

// readinessCheck probes every dependency
func (s *Server) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(s.opts.Checks))
	for name := range s.opts.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	checks := gin.H{}
	for _, name := range names {
		if err := s.opts.Checks[name].Health(ctx); err != nil {
			s.opts.Logger.WithError(err).WithField("dependency", name).Warn("Readiness check failed")
			checks[name] = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"checks":    checks,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
