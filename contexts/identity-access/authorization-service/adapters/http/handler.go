package httpadapter

import (
	"context"
	"log/slog"
	"sort"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/application/commands"
	"ccdepot/contexts/identity-access/authorization-service/application/queries"
	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	httptransport "ccdepot/contexts/identity-access/authorization-service/transport/http"
)

// Handler maps HTTP DTOs to application commands/queries.
type Handler struct {
	CheckPermission queries.CheckPermissionUseCase
	CheckBatch      queries.CheckPermissionsBatchUseCase
	ListRoles       queries.ListRolesUseCase
	ListUserRoles   queries.ListUserRolesUseCase
	ListPermissions queries.ListPermissionsUseCase
	GrantRole       commands.GrantRoleUseCase
	RevokeRole      commands.RevokeRoleUseCase
	Logger          *slog.Logger
}

// CheckPermissionHandler godoc
// @Summary Check permission
// @Description Evaluates one permission for a user, deny by default.
// @Tags authorization
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param request body httptransport.CheckPermissionRequest true "Permission query"
// @Success 200 {object} httptransport.CheckPermissionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/authz/check [post]
func (h Handler) CheckPermissionHandler(
	ctx context.Context,
	userID string,
	request httptransport.CheckPermissionRequest,
) (httptransport.CheckPermissionResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Debug("http authz check received",
		"event", "authz_http_check_received",
		"module", application.ModuleName,
		"layer", "transport",
		"user_id", userID,
		"permission", request.Permission,
	)

	decision, err := h.CheckPermission.Execute(ctx, queries.CheckPermissionQuery{
		UserID:       userID,
		Permission:   request.Permission,
		ResourceType: request.ResourceType,
		ResourceID:   request.ResourceID,
	})
	if err != nil {
		logger.Error("http authz check failed",
			"event", "authz_http_check_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"user_id", userID,
			"permission", request.Permission,
			"error", err.Error(),
		)
		return httptransport.CheckPermissionResponse{}, err
	}
	return mapDecision(decision), nil
}

// CheckBatchHandler godoc
// @Summary Check permissions in batch
// @Tags authorization
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user"
// @Param request body httptransport.CheckBatchRequest true "Permissions"
// @Success 200 {object} httptransport.CheckBatchResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/authz/check-batch [post]
func (h Handler) CheckBatchHandler(
	ctx context.Context,
	userID string,
	request httptransport.CheckBatchRequest,
) (httptransport.CheckBatchResponse, error) {
	decisions, err := h.CheckBatch.Execute(ctx, queries.CheckPermissionsBatchQuery{
		UserID:       userID,
		Permissions:  request.Permissions,
		ResourceType: request.ResourceType,
		ResourceID:   request.ResourceID,
	})
	if err != nil {
		application.ResolveLogger(h.Logger).Error("http authz check batch failed",
			"event", "authz_http_check_batch_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"user_id", userID,
			"permission_count", len(request.Permissions),
			"error", err.Error(),
		)
		return httptransport.CheckBatchResponse{}, err
	}

	items := make([]httptransport.CheckPermissionResponse, 0, len(decisions))
	for _, decision := range decisions {
		items = append(items, mapDecision(decision))
	}
	return httptransport.CheckBatchResponse{Results: items}, nil
}

// ListRolesHandler godoc
// @Summary List roles
// @Description Returns the role catalog with the permissions each role grants.
// @Tags authorization
// @Produce json
// @Success 200 {object} httptransport.ListRolesResponse
// @Router /v1/authz/roles [get]
func (h Handler) ListRolesHandler(ctx context.Context) (httptransport.ListRolesResponse, error) {
	roles, err := h.ListRoles.Execute(ctx)
	if err != nil {
		return httptransport.ListRolesResponse{}, err
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].RoleID < roles[j].RoleID })
	items := make([]httptransport.RoleDTO, 0, len(roles))
	for _, role := range roles {
		items = append(items, httptransport.RoleDTO{
			RoleID:      role.RoleID,
			RoleName:    role.RoleName,
			Permissions: append([]string(nil), role.Permissions...),
		})
	}
	return httptransport.ListRolesResponse{Roles: items}, nil
}

// ListUserRolesHandler godoc
// @Summary List user roles
// @Description Returns active and historical role assignments for a user.
// @Tags authorization
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} httptransport.ListUserRolesResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/authz/users/{user_id}/roles [get]
func (h Handler) ListUserRolesHandler(ctx context.Context, userID string) (httptransport.ListUserRolesResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz list roles received",
		"event", "authz_http_list_roles_received",
		"module", application.ModuleName,
		"layer", "transport",
		"user_id", userID,
	)

	roles, err := h.ListUserRoles.Execute(ctx, userID)
	if err != nil {
		logger.Error("http authz list roles failed",
			"event", "authz_http_list_roles_failed",
			"module", application.ModuleName,
			"layer", "transport",
			"user_id", userID,
			"error", err.Error(),
		)
		return httptransport.ListUserRolesResponse{}, err
	}

	items := make([]httptransport.RoleAssignmentDTO, 0, len(roles))
	for _, role := range roles {
		items = append(items, httptransport.RoleAssignmentDTO{
			AssignmentID: role.AssignmentID,
			UserID:       role.UserID,
			RoleID:       role.RoleID,
			RoleName:     role.RoleName,
			AssignedBy:   role.AssignedBy,
			Reason:       role.Reason,
			AssignedAt:   role.AssignedAt,
			ExpiresAt:    role.ExpiresAt,
			IsActive:     role.IsActive,
			RevokedAt:    role.RevokedAt,
		})
	}
	return httptransport.ListUserRolesResponse{
		UserID: userID,
		Roles:  items,
	}, nil
}

// ListPermissionsHandler godoc
// @Summary List effective permissions
// @Tags authorization
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} httptransport.ListPermissionsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/authz/users/{user_id}/permissions [get]
func (h Handler) ListPermissionsHandler(ctx context.Context, userID string) (httptransport.ListPermissionsResponse, error) {
	permissions, err := h.ListPermissions.Execute(ctx, userID)
	if err != nil {
		return httptransport.ListPermissionsResponse{}, err
	}
	if permissions == nil {
		permissions = []string{}
	}
	return httptransport.ListPermissionsResponse{UserID: userID, Permissions: permissions}, nil
}

// GrantRoleHandler godoc
// @Summary Grant role
// @Description Assigns a role to a user. The acting admin needs authz.manage.
// @Tags authorization
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting admin"
// @Param Idempotency-Key header string false "Replay key"
// @Param user_id path string true "User id"
// @Param request body httptransport.GrantRoleRequest true "Role"
// @Success 200 {object} httptransport.GrantRoleResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/authz/users/{user_id}/roles [post]
func (h Handler) GrantRoleHandler(
	ctx context.Context,
	userID string,
	adminID string,
	idempotencyKey string,
	request httptransport.GrantRoleRequest,
) (httptransport.GrantRoleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("http authz grant role received",
		"event", "authz_http_grant_role_received",
		"module", application.ModuleName,
		"layer", "transport",
		"user_id", userID,
		"admin_id", adminID,
		"role_id", request.RoleID,
	)

	result, err := h.GrantRole.Execute(ctx, commands.GrantRoleCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		RoleID:         request.RoleID,
		AdminID:        adminID,
		Reason:         request.Reason,
		ExpiresAt:      request.ExpiresAt,
	})
	if err != nil {
		return httptransport.GrantRoleResponse{}, err
	}
	return httptransport.GrantRoleResponse{
		AssignmentID: result.Assignment.AssignmentID,
		UserID:       result.Assignment.UserID,
		RoleID:       result.Assignment.RoleID,
		AssignedAt:   result.Assignment.AssignedAt,
		ExpiresAt:    result.Assignment.ExpiresAt,
		Replayed:     result.Replayed,
	}, nil
}

// RevokeRoleHandler godoc
// @Summary Revoke role
// @Tags authorization
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting admin"
// @Param Idempotency-Key header string false "Replay key"
// @Param user_id path string true "User id"
// @Param request body httptransport.RevokeRoleRequest true "Role"
// @Success 200 {object} httptransport.RevokeRoleResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/authz/users/{user_id}/roles/revoke [post]
func (h Handler) RevokeRoleHandler(
	ctx context.Context,
	userID string,
	adminID string,
	idempotencyKey string,
	request httptransport.RevokeRoleRequest,
) (httptransport.RevokeRoleResponse, error) {
	result, err := h.RevokeRole.Execute(ctx, commands.RevokeRoleCommand{
		IdempotencyKey: idempotencyKey,
		UserID:         userID,
		RoleID:         request.RoleID,
		AdminID:        adminID,
		Reason:         request.Reason,
	})
	if err != nil {
		return httptransport.RevokeRoleResponse{}, err
	}
	return httptransport.RevokeRoleResponse{
		UserID:    result.Assignment.UserID,
		RoleID:    result.Assignment.RoleID,
		RevokedAt: result.Assignment.RevokedAt,
		Replayed:  result.Replayed,
	}, nil
}

func mapDecision(decision entities.PermissionDecision) httptransport.CheckPermissionResponse {
	return httptransport.CheckPermissionResponse{
		UserID:       decision.UserID,
		Permission:   decision.Permission,
		ResourceType: decision.ResourceType,
		ResourceID:   decision.ResourceID,
		Allowed:      decision.Allowed,
		Reason:       decision.Reason,
		CheckedAt:    decision.CheckedAt,
		CacheHit:     decision.CacheHit,
	}
}
