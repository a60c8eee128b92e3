// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/middleware"
	"github.com/your-org/storefront/internal/pkg/logger"
	"github.com/your-org/storefront/internal/pkg/metrics"
	"go.uber.org/multierr"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New(cfg.Logging)
	appLog.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	// Connect to database
	db, err := postgres.NewConnection(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}

	checks := map[string]http.HealthChecker{"database": db}

	// Redis only backs the rate limiter; without it requests are not limited
	var limiter middleware.Limiter
	redisClient, err := redis.NewConnection(cfg, appLog)
	if err != nil {
		appLog.WithError(err).Warn("Redis unavailable, rate limiting disabled")
	} else {
		limiter = redisClient
		checks["redis"] = redisClient
	}

	// Run database migrations
	migration := postgres.NewMigration(db.GetDB(), appLog)

	if err := migration.RunAutoMigrations(); err != nil {
		appLog.WithError(err).Fatal("Database migration failed")
	}

	if err := migration.CreateIndexes(); err != nil {
		appLog.WithError(err).Warn("Index creation failed")
	}

	// Seed the catalog in development
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			appLog.WithError(err).Warn("Data seeding failed")
		}
	}

	server := http.NewServer(http.Options{
		Config:   cfg,
		DB:       db.GetDB(),
		Logger:   appLog,
		Limiter:  limiter,
		Metrics:  metrics.New(prometheus.DefaultRegisterer),
		Gatherer: prometheus.DefaultGatherer,
		Checks:   checks,
	})

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			appLog.WithError(err).Fatal("HTTP server failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLog.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	closeErr := db.Close()
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	if closeErr != nil {
		appLog.WithError(closeErr).Error("Failed to release connections")
	}

	appLog.Info("Server shutdown completed")
}
