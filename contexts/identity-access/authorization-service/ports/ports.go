package ports

import (
	"context"
	"time"

	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	contractsv1 "ccdepot/contracts/events/v1"
)

// PolicyChangedEventType tags every outbox row written by a grant or revoke.
const PolicyChangedEventType = "authz.policy_changed"

type (
	Clock interface {
		Now() time.Time
	}

	IDGenerator interface {
		NewID(ctx context.Context) (string, error)
	}
)

// Repository owns roles and grants. GrantRole and RevokeRole write the
// grant change and its policy outbox row together or not at all.
type Repository interface {
	ListRoles(ctx context.Context) ([]entities.Role, error)
	ListUserRoles(ctx context.Context, userID string, now time.Time) ([]entities.RoleAssignment, error)
	ListEffectivePermissions(ctx context.Context, userID string, now time.Time) ([]string, error)
	GrantRole(ctx context.Context, input GrantRoleInput) (RoleMutationResult, error)
	RevokeRole(ctx context.Context, input RevokeRoleInput) (RoleMutationResult, error)
}

// GrantRoleInput carries ids minted by the caller so a retried grant can be
// detected by its outbox id. A nil ExpiresAt makes the grant permanent.
type GrantRoleInput struct {
	UserID       string
	RoleID       string
	AdminID      string
	Reason       string
	AssignmentID string
	OutboxID     string
	AssignedAt   time.Time
	ExpiresAt    *time.Time
}

type RevokeRoleInput struct {
	UserID    string
	RoleID    string
	AdminID   string
	Reason    string
	OutboxID  string
	RevokedAt time.Time
}

type RoleMutationResult struct {
	Assignment entities.RoleAssignment
}

// PermissionCache memoises a user's effective permissions until expiresAt.
// Grants and revokes invalidate the affected user.
type PermissionCache interface {
	Get(ctx context.Context, userID string, now time.Time) ([]string, bool, error)
	Set(ctx context.Context, userID string, permissions []string, expiresAt time.Time) error
	Invalidate(ctx context.Context, userID string) error
}

// IdempotencyRecord is the stored reply to a mutating request made under an
// Idempotency-Key. A second request with the same key and hash replays
// ResponsePayload; a different hash is a conflict.
type IdempotencyRecord struct {
	Key             string
	Operation       string
	RequestHash     string
	ResponsePayload []byte
	ExpiresAt       time.Time
}

type IdempotencyStore interface {
	GetRecord(ctx context.Context, key string, now time.Time) (IdempotencyRecord, bool, error)
	PutRecord(ctx context.Context, record IdempotencyRecord) error
}

// Policy change delivery: the relay drains the outbox to the publisher and
// the consumer uses EventDedupStore to process each event id once.
type (
	OutboxMessage struct {
		OutboxID  string
		EventType string
		Payload   []byte
		CreatedAt time.Time
	}

	OutboxRepository interface {
		ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
		MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
	}

	PolicyChangedEvent = contractsv1.Envelope

	PolicyChangedPublisher interface {
		PublishPolicyChanged(ctx context.Context, event PolicyChangedEvent) error
	}

	EventDedupStore interface {
		ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	}
)
