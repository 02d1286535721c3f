package redisadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const permissionKeyPrefix = "ccdepot:authz:permissions:"

// PermissionCache keeps effective permissions in Redis so every API and worker
// process shares grants and revocations.
type PermissionCache struct {
	client redis.Cmdable
}

func NewPermissionCache(client redis.Cmdable) *PermissionCache {
	return &PermissionCache{client: client}
}

func (c *PermissionCache) Get(ctx context.Context, userID string, _ time.Time) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, permissionKeyPrefix+userID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get permissions: %w", err)
	}
	var permissions []string
	if err := json.Unmarshal(raw, &permissions); err != nil {
		return nil, false, fmt.Errorf("decode cached permissions: %w", err)
	}
	return permissions, true, nil
}

// Set stores permissions until expiresAt. Entries already expired are not written.
func (c *PermissionCache) Set(ctx context.Context, userID string, permissions []string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if permissions == nil {
		permissions = []string{}
	}
	payload, err := json.Marshal(permissions)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, permissionKeyPrefix+userID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set permissions: %w", err)
	}
	return nil
}

func (c *PermissionCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, permissionKeyPrefix+userID).Err(); err != nil {
		return fmt.Errorf("redis delete permissions: %w", err)
	}
	return nil
}
