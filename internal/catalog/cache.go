package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"afilia/internal/platform/redis"
)

const cacheKey = "catalog:products"

// Cached wraps a Client with a Redis cache. With no Redis configured it is a
// plain passthrough. Cache failures degrade to the upstream call, never to an
// error.
type Cached struct {
	inner  Client
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCached(inner Client, client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{inner: inner, client: client, ttl: ttl, logger: logger}
}

func (c *Cached) Products(ctx context.Context) ([]Product, error) {
	if c.client == nil {
		return c.inner.Products(ctx)
	}

	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == nil {
		var cached []Product
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry, refetch below.
	} else if !errors.Is(err, goredis.Nil) {
		c.logger.WarnContext(ctx, "catalog cache read failed", "error", err.Error())
	}

	products, err := c.inner.Products(ctx)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(products); err == nil {
		if err := c.client.Set(ctx, cacheKey, encoded, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "catalog cache write failed", "error", err.Error())
		}
	}
	return products, nil
}
