package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/domain/valueobjects"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

// GrantRoleCommand contains transport-agnostic input for role assignment.
// IdempotencyKey is optional; when set, repeated requests replay the first result.
type GrantRoleCommand struct {
	IdempotencyKey string
	UserID         string
	RoleID         string
	AdminID        string
	Reason         string
	ExpiresAt      *time.Time
}

// GrantRoleResult captures the assignment and replay status.
type GrantRoleResult struct {
	Assignment entities.RoleAssignment `json:"assignment"`
	Replayed   bool                    `json:"replayed"`
}

// GrantRoleUseCase assigns a role on behalf of an admin holding authz.manage.
type GrantRoleUseCase struct {
	Repository      ports.Repository
	Idempotency     ports.IdempotencyStore
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	// Bootstrap skips the admin permission check. Used only by the CLI to
	// seed the first admin.
	Bootstrap bool
	Logger    *slog.Logger
}

func (u GrantRoleUseCase) Execute(ctx context.Context, cmd GrantRoleCommand) (GrantRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	userID, err := valueobjects.NewUserID(cmd.UserID)
	if err != nil {
		return GrantRoleResult{}, err
	}
	roleID := strings.ToLower(strings.TrimSpace(cmd.RoleID))
	if roleID == "" {
		return GrantRoleResult{}, domainerrors.ErrInvalidRoleID
	}
	adminID := strings.TrimSpace(cmd.AdminID)
	if adminID == "" && !u.Bootstrap {
		return GrantRoleResult{}, domainerrors.ErrInvalidAdminID
	}

	now := u.now()
	idempotencyKey := ""
	requestHash := ""
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" && u.Idempotency != nil {
		idempotencyKey = "authz_idempotency:grant:" + key
		requestHash, err = hashRequest(struct {
			UserID    string     `json:"user_id"`
			RoleID    string     `json:"role_id"`
			AdminID   string     `json:"admin_id"`
			Reason    string     `json:"reason"`
			ExpiresAt *time.Time `json:"expires_at,omitempty"`
		}{userID.String(), roleID, adminID, cmd.Reason, cmd.ExpiresAt})
		if err != nil {
			return GrantRoleResult{}, err
		}
		var previous GrantRoleResult
		found, err := replay(ctx, u.Idempotency, idempotencyKey, requestHash, now, &previous)
		if err != nil {
			return GrantRoleResult{}, err
		}
		if found {
			previous.Replayed = true
			logger.Info("grant role replayed",
				"event", "authz_grant_role_replayed",
				"module", application.ModuleName,
				"layer", "application",
				"user_id", userID.String(),
				"role_id", roleID,
			)
			return previous, nil
		}
	}

	if !u.Bootstrap {
		if err := ensureManager(ctx, u.Repository, adminID, now); err != nil {
			logger.Warn("grant role denied",
				"event", "authz_grant_role_denied",
				"module", application.ModuleName,
				"layer", "application",
				"admin_id", adminID,
				"role_id", roleID,
			)
			return GrantRoleResult{}, err
		}
	}

	assignmentID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantRoleResult{}, err
	}
	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return GrantRoleResult{}, err
	}

	mutation, err := u.Repository.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: assignmentID,
		OutboxID:     outboxID,
		UserID:       userID.String(),
		RoleID:       roleID,
		AdminID:      adminID,
		Reason:       cmd.Reason,
		AssignedAt:   now,
		ExpiresAt:    cmd.ExpiresAt,
	})
	if err != nil {
		logger.Error("grant role write failed",
			"event", "authz_grant_role_write_failed",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", userID.String(),
			"role_id", roleID,
			"error", err.Error(),
		)
		return GrantRoleResult{}, err
	}
	invalidate(ctx, u.PermissionCache, logger, userID.String())

	result := GrantRoleResult{Assignment: mutation.Assignment}
	if idempotencyKey != "" {
		if err := remember(ctx, u.Idempotency, idempotencyKey, "grant_role", requestHash, result, now.Add(u.idempotencyTTL())); err != nil {
			return GrantRoleResult{}, err
		}
	}

	logger.Info("grant role completed",
		"event", "authz_grant_role_completed",
		"module", application.ModuleName,
		"layer", "application",
		"user_id", userID.String(),
		"admin_id", adminID,
		"role_id", roleID,
		"assignment_id", result.Assignment.AssignmentID,
	)
	return result, nil
}

func (u GrantRoleUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u GrantRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func invalidate(ctx context.Context, cache ports.PermissionCache, logger *slog.Logger, userID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, userID); err != nil {
		logger.Warn("permission cache invalidate failed",
			"event", "authz_cache_invalidation_failed",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", userID,
			"error", err.Error(),
		)
	}
}
