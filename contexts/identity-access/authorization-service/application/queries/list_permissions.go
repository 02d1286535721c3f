package queries

import (
	"context"
	"time"

	"ccdepot/contexts/identity-access/authorization-service/domain/valueobjects"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

// ListPermissionsUseCase returns the effective permission set of a user,
// bypassing the cache.
type ListPermissionsUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
}

func (u ListPermissionsUseCase) Execute(ctx context.Context, userID string) ([]string, error) {
	id, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}
	return u.Repository.ListEffectivePermissions(ctx, id.String(), now)
}
