package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"afilia/internal/platform/config"
)

// Client is the shared Redis connection behind the wizard session store and
// the product catalog cache.
type Client struct {
	*redis.Client
}

// New dials Redis from configuration and verifies the connection. An empty
// URL is not an error: single-kiosk deployments run without Redis, and
// callers fall back to the in-process stores when the client is nil.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health pings the connection; the readiness endpoint reports its result.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.Client.Close()
}
