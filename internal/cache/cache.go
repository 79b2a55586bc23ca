package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/blog/internal/models"
)

// BlogCache is a cache-aside store for single blog reads.
type BlogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(ctx context.Context, addr string, ttl time.Duration) (*BlogCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewWithClient(client, ttl), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *BlogCache {
	return &BlogCache{client: client, ttl: ttl}
}

func blogKey(id uuid.UUID) string { return "blog:" + id.String() }

// GetBlog reports a miss as (nil, nil).
func (c *BlogCache) GetBlog(ctx context.Context, id uuid.UUID) (*models.Blog, error) {
	val, err := c.client.Get(ctx, blogKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s: %w", blogKey(id), err)
	}
	var b models.Blog
	if err := json.Unmarshal(val, &b); err != nil {
		return nil, fmt.Errorf("cache decode %s: %w", blogKey(id), err)
	}
	return &b, nil
}

func (c *BlogCache) SetBlog(ctx context.Context, b *models.Blog) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, blogKey(b.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", blogKey(b.ID), err)
	}
	return nil
}

func (c *BlogCache) DeleteBlog(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, blogKey(id)).Err(); err != nil {
		return fmt.Errorf("cache del %s: %w", blogKey(id), err)
	}
	return nil
}

func (c *BlogCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *BlogCache) Close() error {
	return c.client.Close()
}
