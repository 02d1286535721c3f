package queries

import (
	"context"
	"log/slog"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
)

// CheckPermissionsBatchQuery checks several permissions of one user against
// the same resource.
type CheckPermissionsBatchQuery struct {
	UserID       string
	Permissions  []string
	ResourceType string
	ResourceID   string
}

type CheckPermissionsBatchUseCase struct {
	CheckPermission CheckPermissionUseCase
	Logger          *slog.Logger
}

// Execute returns decisions in request order. Repeated permissions are
// evaluated once and the decision is copied. Any invalid permission fails
// the whole batch.
func (u CheckPermissionsBatchUseCase) Execute(ctx context.Context, query CheckPermissionsBatchQuery) ([]entities.PermissionDecision, error) {
	decided := make(map[string]entities.PermissionDecision, len(query.Permissions))
	results := make([]entities.PermissionDecision, 0, len(query.Permissions))
	allowed := 0
	for _, permission := range query.Permissions {
		decision, ok := decided[permission]
		if !ok {
			var err error
			decision, err = u.CheckPermission.Execute(ctx, CheckPermissionQuery{
				UserID:       query.UserID,
				Permission:   permission,
				ResourceType: query.ResourceType,
				ResourceID:   query.ResourceID,
			})
			if err != nil {
				return nil, err
			}
			decided[permission] = decision
		}
		if decision.Allowed {
			allowed++
		}
		results = append(results, decision)
	}

	application.ResolveLogger(u.Logger).Debug("check permission batch completed",
		"event", "authz_check_batch_completed",
		"module", application.ModuleName,
		"layer", "application",
		"user_id", query.UserID,
		"permission_count", len(query.Permissions),
		"allowed_count", allowed,
	)
	return results, nil
}
