package markup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const activeSchemaKey = "quoting:markup:active_schema"

// Cache wraps Redis helpers for the active schema payload. All methods are
// nil-safe so the service degrades to direct reads without Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetActive unmarshals the cached active schema into dst. It reports whether the key existed.
func (c *Cache) GetActive(ctx context.Context, dst *Schema) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}
	data, err := c.client.Get(ctx, activeSchemaKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetActive stores the active schema with the configured TTL.
func (c *Cache) SetActive(ctx context.Context, schema Schema) error {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(schema)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, activeSchemaKey, data, c.ttl).Err()
}

// Invalidate drops the cached active schema. Called after activation changes.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, activeSchemaKey).Err()
}
