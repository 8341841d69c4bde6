// Package cache keeps fetched resource schemas in Redis so restarts and
// horizontally scaled instances do not re-hit the registry.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(url string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	client := redis.NewClient(opt)
	return &Cache{client: client, ttl: ttl}, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached schema document, or nil when the type is not
// cached.
func (c *Cache) Get(ctx context.Context, typeName string) ([]byte, error) {
	raw, err := c.client.Get(ctx, key(typeName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Cache) Set(ctx context.Context, typeName string, doc []byte) error {
	return c.client.Set(ctx, key(typeName), doc, c.ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func key(typeName string) string {
	return "schema:" + typeName
}
