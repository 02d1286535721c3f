package entities

import "time"

// Decision reasons.
const (
	ReasonGranted      = "permission_granted"
	ReasonMissing      = "permission_missing"
	ReasonLookupFailed = "deny_by_default"
)

// PermissionDecision is the outcome of one permission check. Lookup failures
// produce a denial with ReasonLookupFailed rather than an error.
type PermissionDecision struct {
	UserID       string    `json:"user_id"`
	Permission   string    `json:"permission"`
	ResourceType string    `json:"resource_type,omitempty"`
	ResourceID   string    `json:"resource_id,omitempty"`
	Allowed      bool      `json:"allowed"`
	Reason       string    `json:"reason"`
	CheckedAt    time.Time `json:"checked_at"`
	CacheHit     bool      `json:"cache_hit"`
}
