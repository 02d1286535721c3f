package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

// PolicyChangedConsumer evicts the cached permissions of a user whose role
// assignments changed. Redelivered events are skipped through the dedup store.
type PolicyChangedConsumer struct {
	Dedup           ports.EventDedupStore
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	DedupTTL        time.Duration
	Logger          *slog.Logger
}

func (c PolicyChangedConsumer) Handle(ctx context.Context, event ports.PolicyChangedEvent) error {
	if event.EventType != ports.PolicyChangedEventType {
		return nil
	}
	var payload struct {
		UserID string `json:"user_id"`
		RoleID string `json:"role_id"`
		Action string `json:"action_type"`
	}
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		return fmt.Errorf("decode policy event %s: %w", event.EventID, err)
	}
	if payload.UserID == "" {
		return nil
	}

	sum := sha256.Sum256(event.Data)
	seen, err := c.Dedup.ReserveEvent(ctx, event.EventID, hex.EncodeToString(sum[:]), c.now().Add(c.dedupTTL()))
	if err != nil || seen {
		return err
	}
	if err := c.PermissionCache.Invalidate(ctx, payload.UserID); err != nil {
		return err
	}
	application.ResolveLogger(c.Logger).Debug("permission cache evicted",
		"event", "authz_permission_cache_evicted",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"user_id", payload.UserID,
		"role_id", payload.RoleID,
		"action_type", payload.Action,
	)
	return nil
}

func (c PolicyChangedConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func (c PolicyChangedConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
