package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/domain/services"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

// CheckPermissionQuery asks whether UserID holds Permission. Permissions are
// global; ResourceType must match the permission's resource when set, and
// ResourceID is only echoed on the decision.
type CheckPermissionQuery struct {
	UserID       string
	Permission   string
	ResourceType string
	ResourceID   string
}

// CheckPermissionUseCase answers permission checks from the cache, falling
// back to the repository.
type CheckPermissionUseCase struct {
	Repository         ports.Repository
	PermissionCache    ports.PermissionCache
	Clock              ports.Clock
	PermissionCacheTTL time.Duration
	Logger             *slog.Logger
}

func (u CheckPermissionUseCase) Execute(ctx context.Context, query CheckPermissionQuery) (entities.PermissionDecision, error) {
	userID := strings.TrimSpace(query.UserID)
	if userID == "" {
		return entities.PermissionDecision{}, domainerrors.ErrInvalidUserID
	}
	permission, ok := entities.ParsePermission(query.Permission)
	if !ok {
		return entities.PermissionDecision{}, fmt.Errorf("%w: %q", domainerrors.ErrInvalidPermission, query.Permission)
	}
	if !permission.Targets(query.ResourceType) {
		return entities.PermissionDecision{}, fmt.Errorf("%w: %s does not apply to %s resources",
			domainerrors.ErrInvalidPermission, permission, query.ResourceType)
	}

	now := u.now()
	decision := entities.PermissionDecision{
		UserID:       userID,
		Permission:   permission.String(),
		ResourceType: strings.TrimSpace(query.ResourceType),
		ResourceID:   query.ResourceID,
		CheckedAt:    now,
	}
	logger := application.ResolveLogger(u.Logger).With(
		"module", application.ModuleName,
		"layer", "application",
		"user_id", userID,
		"permission", decision.Permission,
		"resource_type", decision.ResourceType,
		"resource_id", decision.ResourceID,
	)

	granted, cacheHit, err := u.effectivePermissions(ctx, userID, now)
	if err != nil {
		logger.Error("permission lookup failed, deny by default",
			"event", "authz_permission_lookup_failed",
			"error", err.Error(),
		)
		decision.Reason = entities.ReasonLookupFailed
		return decision, nil
	}

	decision.CacheHit = cacheHit
	decision.Allowed = services.GrantsPermission(granted, decision.Permission)
	if decision.Allowed {
		decision.Reason = entities.ReasonGranted
		logger.Debug("check permission allowed", "event", "authz_check_allowed", "cache_hit", cacheHit)
	} else {
		decision.Reason = entities.ReasonMissing
		logger.Warn("check permission denied", "event", "authz_check_denied", "cache_hit", cacheHit)
	}
	return decision, nil
}

// effectivePermissions reads through the cache. A failed cache write is
// logged and the repository result is still used.
func (u CheckPermissionUseCase) effectivePermissions(ctx context.Context, userID string, now time.Time) ([]string, bool, error) {
	if u.PermissionCache != nil {
		cached, hit, err := u.PermissionCache.Get(ctx, userID, now)
		if err != nil {
			return nil, false, err
		}
		if hit {
			return cached, true, nil
		}
	}

	permissions, err := u.Repository.ListEffectivePermissions(ctx, userID, now)
	if err != nil {
		return nil, false, err
	}
	if u.PermissionCache == nil {
		return permissions, false, nil
	}
	if err := u.PermissionCache.Set(ctx, userID, permissions, now.Add(u.cacheTTL())); err != nil {
		application.ResolveLogger(u.Logger).Warn("permission cache write failed",
			"event", "authz_cache_set_failed",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
	}
	return permissions, false, nil
}

func (u CheckPermissionUseCase) cacheTTL() time.Duration {
	if u.PermissionCacheTTL <= 0 {
		return 5 * time.Minute
	}
	return u.PermissionCacheTTL
}

func (u CheckPermissionUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
