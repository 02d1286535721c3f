package httptransport

import "time"

// Permission checks. ResourceType and ResourceID narrow a check to one
// repository object, usually an item id; both are echoed back verbatim.
type (
	CheckPermissionRequest struct {
		Permission   string `json:"permission"`
		UserID       string `json:"user_id,omitempty"`
		ResourceType string `json:"resource_type,omitempty"`
		ResourceID   string `json:"resource_id,omitempty"`
	}

	CheckBatchRequest struct {
		Permissions  []string `json:"permissions"`
		UserID       string   `json:"user_id,omitempty"`
		ResourceType string   `json:"resource_type,omitempty"`
		ResourceID   string   `json:"resource_id,omitempty"`
	}

	// CheckPermissionResponse is one decision. CacheHit reports whether the
	// effective permission set came from the cache rather than the store.
	CheckPermissionResponse struct {
		Allowed      bool      `json:"allowed"`
		Permission   string    `json:"permission"`
		Reason       string    `json:"reason"`
		UserID       string    `json:"user_id"`
		ResourceType string    `json:"resource_type,omitempty"`
		ResourceID   string    `json:"resource_id,omitempty"`
		CacheHit     bool      `json:"cache_hit"`
		CheckedAt    time.Time `json:"checked_at"`
	}

	CheckBatchResponse struct {
		Results []CheckPermissionResponse `json:"results"`
	}
)

// Role catalogue and per-user views.
type (
	RoleDTO struct {
		RoleID      string   `json:"role_id"`
		RoleName    string   `json:"role_name"`
		Permissions []string `json:"permissions"`
	}

	ListRolesResponse struct {
		Roles []RoleDTO `json:"roles"`
	}

	// RoleAssignmentDTO includes revoked and expired grants; IsActive tells
	// them apart from the ones currently contributing permissions.
	RoleAssignmentDTO struct {
		AssignmentID string     `json:"assignment_id"`
		RoleID       string     `json:"role_id"`
		RoleName     string     `json:"role_name"`
		UserID       string     `json:"user_id"`
		IsActive     bool       `json:"is_active"`
		AssignedBy   string     `json:"assigned_by"`
		Reason       string     `json:"reason"`
		AssignedAt   time.Time  `json:"assigned_at"`
		ExpiresAt    *time.Time `json:"expires_at,omitempty"`
		RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	}

	ListUserRolesResponse struct {
		UserID string              `json:"user_id"`
		Roles  []RoleAssignmentDTO `json:"roles"`
	}

	ListPermissionsResponse struct {
		UserID      string   `json:"user_id"`
		Permissions []string `json:"permissions"`
	}
)

// Role administration. Both mutations honour the Idempotency-Key header;
// Replayed is set when the stored response of an earlier call is returned.
type (
	GrantRoleRequest struct {
		RoleID    string     `json:"role_id"`
		Reason    string     `json:"reason,omitempty"`
		ExpiresAt *time.Time `json:"expires_at,omitempty"`
	}

	GrantRoleResponse struct {
		AssignmentID string     `json:"assignment_id"`
		RoleID       string     `json:"role_id"`
		UserID       string     `json:"user_id"`
		AssignedAt   time.Time  `json:"assigned_at"`
		ExpiresAt    *time.Time `json:"expires_at,omitempty"`
		Replayed     bool       `json:"replayed"`
	}

	RevokeRoleRequest struct {
		RoleID string `json:"role_id"`
		Reason string `json:"reason,omitempty"`
	}

	RevokeRoleResponse struct {
		RoleID    string     `json:"role_id"`
		UserID    string     `json:"user_id"`
		RevokedAt *time.Time `json:"revoked_at,omitempty"`
		Replayed  bool       `json:"replayed"`
	}
)

// ErrorResponse carries a stable machine code next to a readable message.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
