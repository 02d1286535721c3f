package queries

import (
	"context"
	"sort"
	"time"

	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	"ccdepot/contexts/identity-access/authorization-service/domain/valueobjects"
	"ccdepot/contexts/identity-access/authorization-service/ports"
)

type ListUserRolesUseCase struct {
	Repository ports.Repository
	Clock      ports.Clock
}

func (u ListUserRolesUseCase) Execute(ctx context.Context, userID string) ([]entities.RoleAssignment, error) {
	id, err := valueobjects.NewUserID(userID)
	if err != nil {
		return nil, err
	}
	return u.Repository.ListUserRoles(ctx, id.String(), u.now())
}

func (u ListUserRolesUseCase) now() time.Time {
	if u.Clock != nil {
		return u.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

// ListRolesUseCase returns the role catalog ordered by id.
type ListRolesUseCase struct {
	Repository ports.Repository
}

func (u ListRolesUseCase) Execute(ctx context.Context) ([]entities.Role, error) {
	roles, err := u.Repository.ListRoles(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(roles, func(i, j int) bool {
		return roles[i].RoleID < roles[j].RoleID
	})
	return roles, nil
}
