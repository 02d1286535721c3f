package commands

import (
	"context"
	"fmt"
	"time"

	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/domain/services"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

// ensureManager fails with ErrForbidden unless actorID holds authz.manage.
// The check reads the repository directly so a stale cache cannot grant it.
func ensureManager(ctx context.Context, repository ports.Repository, actorID string, now time.Time) error {
	permissions, err := repository.ListEffectivePermissions(ctx, actorID, now)
	if err != nil {
		return err
	}
	if !services.GrantsPermission(permissions, entities.PermissionAuthzManage) {
		return fmt.Errorf("%w: %s lacks %s", domainerrors.ErrForbidden, actorID, entities.PermissionAuthzManage)
	}
	return nil
}

// ensureNotSelfDemotion stops a manager from revoking their own admin role,
// which could leave the repository without anyone able to grant roles.
func ensureNotSelfDemotion(actorID string, userID string, roleID string) error {
	if actorID == userID && roleID == entities.RoleAdmin {
		return fmt.Errorf("%w: %s cannot revoke their own admin role", domainerrors.ErrForbidden, actorID)
	}
	return nil
}
