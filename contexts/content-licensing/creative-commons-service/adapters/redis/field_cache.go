package redisadapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const fieldKeyPrefix = "ccdepot:cc:field:"

// FieldCache stores resolved license field names shared by all replicas, one
// key per field id. A positive ttl bounds how long each entry lives from its
// own last write.
type FieldCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewFieldCache(client redis.Cmdable, ttl time.Duration) *FieldCache {
	return &FieldCache{client: client, ttl: ttl}
}

func fieldKey(fieldID string) string {
	return fieldKeyPrefix + fieldID
}

func (c *FieldCache) GetField(ctx context.Context, fieldID string) (string, bool, error) {
	value, err := c.client.Get(ctx, fieldKey(fieldID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get license field: %w", err)
	}
	return value, true, nil
}

func (c *FieldCache) SetField(ctx context.Context, fieldID string, fieldName string) error {
	if fieldID == "" || fieldName == "" {
		return nil
	}
	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, fieldKey(fieldID), fieldName, ttl).Err(); err != nil {
		return fmt.Errorf("redis set license field: %w", err)
	}
	return nil
}
