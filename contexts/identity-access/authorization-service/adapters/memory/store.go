package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/domain/entities"
	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/domain/services"
	"ccdepot/contexts/identity-access/authorization-service/ports"

	"github.com/google/uuid"
)

var errOutboxRowMissing = errors.New("outbox record not found")

// Store keeps role grants, the permission cache, idempotency replies and
// the policy outbox in process memory. Grants are held per user in the
// order they were made; the outbox is an append-only log.
type Store struct {
	mu sync.RWMutex

	roles  map[string]entities.Role
	grants map[string][]entities.RoleAssignment

	replies     map[string]ports.IdempotencyRecord
	permissions map[string]cachedPermissions

	outbox      []outboxEntry
	outboxIndex map[string]int
	seen        map[string]string
}

type cachedPermissions struct {
	names     []string
	expiresAt time.Time
}

type outboxEntry struct {
	message     ports.OutboxMessage
	publishedAt *time.Time
}

// NewStore seeds the built-in repository roles. seed maps a user id to the
// role it starts with; unknown roles are ignored.
func NewStore(seed map[string]string) *Store {
	s := &Store{
		roles:       services.DefaultRoles(),
		grants:      make(map[string][]entities.RoleAssignment),
		replies:     make(map[string]ports.IdempotencyRecord),
		permissions: make(map[string]cachedPermissions),
		outboxIndex: make(map[string]int),
		seen:        make(map[string]string),
	}
	grantedAt := time.Now().UTC()
	for userID, roleID := range seed {
		role, ok := s.roles[roleID]
		if !ok {
			continue
		}
		s.grants[userID] = append(s.grants[userID], entities.RoleAssignment{
			AssignmentID: "seed-" + userID + "-" + roleID,
			UserID:       userID,
			RoleID:       roleID,
			RoleName:     role.RoleName,
			AssignedBy:   "system",
			Reason:       "seed",
			AssignedAt:   grantedAt,
			IsActive:     true,
		})
	}
	return s
}

func (s *Store) ListRoles(_ context.Context) ([]entities.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	roles := make([]entities.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].RoleID < roles[j].RoleID })
	return roles, nil
}

func (s *Store) ListEffectivePermissions(_ context.Context, userID string, now time.Time) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return services.EffectivePermissions(s.roles, s.grants[userID], now), nil
}

// ListUserRoles returns the user's grants newest first. Revoked grants stay
// visible as history; active grants past their expiry are left out.
func (s *Store) ListUserRoles(_ context.Context, userID string, now time.Time) ([]entities.RoleAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.grants[userID]
	visible := make([]entities.RoleAssignment, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		grant := history[i]
		if grant.IsActive && !grant.ActiveAt(now) {
			continue
		}
		visible = append(visible, grant)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].AssignedAt.After(visible[j].AssignedAt)
	})
	return visible, nil
}

func (s *Store) GrantRole(_ context.Context, input ports.GrantRoleInput) (ports.RoleMutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	role, ok := s.roles[input.RoleID]
	if !ok {
		return ports.RoleMutationResult{}, domainerrors.ErrRoleNotFound
	}
	if _, held := s.activeGrant(input.UserID, input.RoleID, input.AssignedAt); held {
		return ports.RoleMutationResult{}, domainerrors.ErrRoleAlreadyAssigned
	}
	if _, dup := s.outboxIndex[input.OutboxID]; dup {
		return ports.RoleMutationResult{}, domainerrors.ErrIdempotencyConflict
	}

	grant := entities.RoleAssignment{
		AssignmentID: input.AssignmentID,
		UserID:       input.UserID,
		RoleID:       input.RoleID,
		RoleName:     role.RoleName,
		AssignedBy:   input.AdminID,
		Reason:       input.Reason,
		AssignedAt:   input.AssignedAt.UTC(),
		ExpiresAt:    input.ExpiresAt,
		IsActive:     true,
	}
	if err := s.recordPolicyChange(input.OutboxID, input.UserID, input.RoleID, "role_granted", input.AssignedAt); err != nil {
		return ports.RoleMutationResult{}, err
	}
	s.grants[input.UserID] = append(s.grants[input.UserID], grant)
	return ports.RoleMutationResult{Assignment: grant}, nil
}

// RevokeRole deactivates the user's active grant of the role, including one
// that has already expired, so the revocation is still recorded.
func (s *Store) RevokeRole(_ context.Context, input ports.RevokeRoleInput) (ports.RoleMutationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.grants[input.UserID]
	at := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].RoleID == input.RoleID && history[i].IsActive {
			at = i
			break
		}
	}
	if at < 0 {
		return ports.RoleMutationResult{}, domainerrors.ErrRoleNotAssigned
	}
	if _, dup := s.outboxIndex[input.OutboxID]; dup {
		return ports.RoleMutationResult{}, domainerrors.ErrIdempotencyConflict
	}
	if err := s.recordPolicyChange(input.OutboxID, input.UserID, input.RoleID, "role_revoked", input.RevokedAt); err != nil {
		return ports.RoleMutationResult{}, err
	}

	revokedAt := input.RevokedAt.UTC()
	history[at].IsActive = false
	history[at].RevokedAt = &revokedAt
	return ports.RoleMutationResult{Assignment: history[at]}, nil
}

func (s *Store) activeGrant(userID, roleID string, at time.Time) (entities.RoleAssignment, bool) {
	for _, grant := range s.grants[userID] {
		if grant.RoleID == roleID && grant.IsActive && grant.ActiveAt(at) {
			return grant, true
		}
	}
	return entities.RoleAssignment{}, false
}

// GetRecord drops and misses a reply whose retention has lapsed.
func (s *Store) GetRecord(_ context.Context, key string, now time.Time) (ports.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.replies[key]
	switch {
	case !ok:
		return ports.IdempotencyRecord{}, false, nil
	case !record.ExpiresAt.After(now):
		delete(s.replies, key)
		return ports.IdempotencyRecord{}, false, nil
	}
	return record, true, nil
}

func (s *Store) PutRecord(_ context.Context, record ports.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stored, ok := s.replies[record.Key]; ok && stored.RequestHash != record.RequestHash {
		return domainerrors.ErrIdempotencyConflict
	}
	s.replies[record.Key] = record
	return nil
}

// Get, Set and Invalidate implement ports.PermissionCache.
func (s *Store) Get(_ context.Context, userID string, now time.Time) ([]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, ok := s.permissions[userID]
	if !ok {
		return nil, false, nil
	}
	if !cached.expiresAt.After(now) {
		delete(s.permissions, userID)
		return nil, false, nil
	}
	return append([]string(nil), cached.names...), true, nil
}

func (s *Store) Set(_ context.Context, userID string, permissions []string, expiresAt time.Time) error {
	s.mu.Lock()
	s.permissions[userID] = cachedPermissions{
		names:     append([]string(nil), permissions...),
		expiresAt: expiresAt.UTC(),
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Invalidate(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.permissions, userID)
	s.mu.Unlock()
	return nil
}

// ListPendingOutbox returns unpublished policy events in the order they
// were recorded.
func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	pending := make([]ports.OutboxMessage, 0, limit)
	for _, entry := range s.outbox {
		if len(pending) == limit {
			break
		}
		if entry.publishedAt == nil {
			pending = append(pending, entry.message)
		}
	}
	return pending, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	at, ok := s.outboxIndex[outboxID]
	if !ok {
		return errOutboxRowMissing
	}
	stamp := publishedAt.UTC()
	s.outbox[at].publishedAt = &stamp
	return nil
}

// ReserveEvent reports whether the event id was already consumed. A reused
// id with a different payload is a conflict. Reservations do not expire in
// memory.
func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, ok := s.seen[eventID]
	if !ok {
		s.seen[eventID] = payloadHash
		return false, nil
	}
	if hash != payloadHash {
		return false, domainerrors.ErrIdempotencyConflict
	}
	return true, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) recordPolicyChange(outboxID, userID, roleID, action string, at time.Time) error {
	event, err := application.BuildPolicyChangedEvent(outboxID, userID, roleID, action, at)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outboxIndex[outboxID] = len(s.outbox)
	s.outbox = append(s.outbox, outboxEntry{message: ports.OutboxMessage{
		OutboxID:  outboxID,
		EventType: ports.PolicyChangedEventType,
		Payload:   payload,
		CreatedAt: at.UTC(),
	}})
	return nil
}
