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

type RevokeRoleCommand struct {
	IdempotencyKey string
	UserID         string
	RoleID         string
	AdminID        string
	Reason         string
}

type RevokeRoleResult struct {
	Assignment entities.RoleAssignment `json:"assignment"`
	Replayed   bool                    `json:"replayed"`
}

type RevokeRoleUseCase struct {
	Repository      ports.Repository
	Idempotency     ports.IdempotencyStore
	PermissionCache ports.PermissionCache
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	IdempotencyTTL  time.Duration
	Logger          *slog.Logger
}

func (u RevokeRoleUseCase) Execute(ctx context.Context, cmd RevokeRoleCommand) (RevokeRoleResult, error) {
	logger := application.ResolveLogger(u.Logger)

	userID, err := valueobjects.NewUserID(cmd.UserID)
	if err != nil {
		return RevokeRoleResult{}, err
	}
	roleID := strings.ToLower(strings.TrimSpace(cmd.RoleID))
	if roleID == "" {
		return RevokeRoleResult{}, domainerrors.ErrInvalidRoleID
	}
	adminID := strings.TrimSpace(cmd.AdminID)
	if adminID == "" {
		return RevokeRoleResult{}, domainerrors.ErrInvalidAdminID
	}

	now := u.now()
	idempotencyKey := ""
	requestHash := ""
	if key := strings.TrimSpace(cmd.IdempotencyKey); key != "" && u.Idempotency != nil {
		idempotencyKey = "authz_idempotency:revoke:" + key
		requestHash, err = hashRequest(struct {
			UserID  string `json:"user_id"`
			RoleID  string `json:"role_id"`
			AdminID string `json:"admin_id"`
			Reason  string `json:"reason"`
		}{userID.String(), roleID, adminID, cmd.Reason})
		if err != nil {
			return RevokeRoleResult{}, err
		}
		var previous RevokeRoleResult
		found, err := replay(ctx, u.Idempotency, idempotencyKey, requestHash, now, &previous)
		if err != nil {
			return RevokeRoleResult{}, err
		}
		if found {
			previous.Replayed = true
			return previous, nil
		}
	}

	if err := ensureManager(ctx, u.Repository, adminID, now); err != nil {
		return RevokeRoleResult{}, err
	}
	if err := ensureNotSelfDemotion(adminID, userID.String(), roleID); err != nil {
		return RevokeRoleResult{}, err
	}

	outboxID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RevokeRoleResult{}, err
	}
	mutation, err := u.Repository.RevokeRole(ctx, ports.RevokeRoleInput{
		OutboxID:  outboxID,
		UserID:    userID.String(),
		RoleID:    roleID,
		AdminID:   adminID,
		Reason:    cmd.Reason,
		RevokedAt: now,
	})
	if err != nil {
		logger.Error("revoke role write failed",
			"event", "authz_revoke_role_write_failed",
			"module", application.ModuleName,
			"layer", "application",
			"user_id", userID.String(),
			"role_id", roleID,
			"error", err.Error(),
		)
		return RevokeRoleResult{}, err
	}
	invalidate(ctx, u.PermissionCache, logger, userID.String())

	result := RevokeRoleResult{Assignment: mutation.Assignment}
	if idempotencyKey != "" {
		if err := remember(ctx, u.Idempotency, idempotencyKey, "revoke_role", requestHash, result, now.Add(u.idempotencyTTL())); err != nil {
			return RevokeRoleResult{}, err
		}
	}

	logger.Info("revoke role completed",
		"event", "authz_revoke_role_completed",
		"module", application.ModuleName,
		"layer", "application",
		"user_id", userID.String(),
		"admin_id", adminID,
		"role_id", roleID,
	)
	return result, nil
}

func (u RevokeRoleUseCase) idempotencyTTL() time.Duration {
	if u.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return u.IdempotencyTTL
}

func (u RevokeRoleUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
