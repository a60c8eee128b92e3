// internal/infrastructure/database/redis/connection.go
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
)

// Commands is the subset of the Redis API the storefront uses
type Commands interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Client wraps the Redis client
type Client struct {
	rdb Commands
	now func() time.Time
}

// NewConnection creates a new Redis connection
func NewConnection(cfg *config.Config, log *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.WithField("addr", cfg.GetRedisAddr()).Info("Redis connection established")

	return NewWithCommands(rdb), nil
}

// NewWithCommands wraps an existing command implementation
func NewWithCommands(rdb Commands) *Client {
	return &Client{rdb: rdb, now: time.Now}
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health checks the Redis connection health
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Window is the outcome of one fixed-window rate limit check
type Window struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// FixedWindowAllow counts one hit against scope in the current window
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int, window time.Duration) (Window, error) {
	now := c.now()
	start := now.Truncate(window)
	key := fmt.Sprintf("rate_limit:%s:%d", scope, start.Unix())

	hits, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return Window{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}
	if hits == 1 {
		if err := c.rdb.Expire(ctx, key, window).Err(); err != nil {
			return Window{}, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	remaining := limit - int(hits)
	if remaining < 0 {
		remaining = 0
	}
	return Window{
		Allowed:   int(hits) <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   start.Add(window),
	}, nil
}
