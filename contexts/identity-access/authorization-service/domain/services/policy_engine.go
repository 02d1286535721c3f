package services

import (
	"sort"
	"time"

	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
)

// DefaultRoles is the built-in role catalog.
func DefaultRoles() map[string]entities.Role {
	return map[string]entities.Role{
		entities.RoleReader: {
			RoleID:   entities.RoleReader,
			RoleName: entities.RoleReader,
			Permissions: []string{
				entities.PermissionItemRead,
				entities.PermissionScriptRead,
			},
		},
		entities.RoleEditor: {
			RoleID:   entities.RoleEditor,
			RoleName: entities.RoleEditor,
			Permissions: []string{
				entities.PermissionItemRead,
				entities.PermissionItemWrite,
				entities.PermissionScriptRead,
			},
		},
		entities.RoleAdmin: {
			RoleID:   entities.RoleAdmin,
			RoleName: entities.RoleAdmin,
			Permissions: []string{
				entities.PermissionItemRead,
				entities.PermissionItemWrite,
				entities.PermissionScriptRun,
				entities.PermissionScriptRead,
				entities.PermissionAuthzManage,
			},
		},
	}
}

// PolicyEngine evaluates whether a role grants a permission.
func PolicyEngine(role entities.Role, permission string) bool {
	return GrantsPermission(role.Permissions, permission)
}

// GrantsPermission reports whether permission is in the effective set.
func GrantsPermission(permissions []string, permission string) bool {
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// EffectivePermissions unions the permissions of the assignments active at now.
// The result is sorted and free of duplicates.
func EffectivePermissions(
	roles map[string]entities.Role,
	assignments []entities.RoleAssignment,
	now time.Time,
) []string {
	set := make(map[string]struct{})
	for _, assignment := range assignments {
		if !assignment.ActiveAt(now) {
			continue
		}
		role, ok := roles[assignment.RoleID]
		if !ok {
			continue
		}
		for _, permission := range role.Permissions {
			set[permission] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for permission := range set {
		out = append(out, permission)
	}
	sort.Strings(out)
	return out
}
