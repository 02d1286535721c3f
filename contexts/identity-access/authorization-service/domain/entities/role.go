package entities

import "strings"

const (
	RoleReader = "reader"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Permissions are "<resource>.<action>"; the resource part names the
// resource type a check may target.
const (
	PermissionItemRead    = "item.read"
	PermissionItemWrite   = "item.write"
	PermissionScriptRun   = "script.run"
	PermissionScriptRead  = "script.read"
	PermissionAuthzManage = "authz.manage"
)

const (
	ResourceItem   = "item"
	ResourceScript = "script"
	ResourceAuthz  = "authz"
)

// Role bundles the permissions granted to its holders.
type Role struct {
	RoleID      string   `json:"role_id"`
	RoleName    string   `json:"role_name"`
	Permissions []string `json:"permissions"`
}

// Permission is a parsed permission string.
type Permission struct {
	Resource string
	Action   string
}

// ParsePermission splits raw into resource and action. ok is false for
// anything without exactly one dot or with an unknown resource type.
func ParsePermission(raw string) (Permission, bool) {
	resource, action, found := strings.Cut(strings.TrimSpace(raw), ".")
	if !found || action == "" || strings.Contains(action, ".") {
		return Permission{}, false
	}
	switch resource {
	case ResourceItem, ResourceScript, ResourceAuthz:
		return Permission{Resource: resource, Action: action}, true
	default:
		return Permission{}, false
	}
}

func (p Permission) String() string {
	return p.Resource + "." + p.Action
}

// Targets reports whether the permission can be checked against resourceType.
// An empty resource type matches every permission.
func (p Permission) Targets(resourceType string) bool {
	resourceType = strings.TrimSpace(resourceType)
	return resourceType == "" || resourceType == p.Resource
}
