package memory

import (
	"context"
	"testing"
	"time"

	domainerrors "ccdepot/contexts/identity-access/authorization-service/domain/errors"
	"ccdepot/contexts/identity-access/authorization-service/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGrantHistoryAndOutboxOrder(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: "a-1", OutboxID: "o-1", UserID: "user-1", RoleID: "editor",
		AdminID: "admin-1", AssignedAt: start,
	})
	require.NoError(t, err)
	_, err = store.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: "a-2", OutboxID: "o-2", UserID: "user-1", RoleID: "editor",
		AdminID: "admin-1", AssignedAt: start.Add(time.Minute),
	})
	require.ErrorIs(t, err, domainerrors.ErrRoleAlreadyAssigned)

	revoked, err := store.RevokeRole(ctx, ports.RevokeRoleInput{
		OutboxID: "o-3", UserID: "user-1", RoleID: "editor", RevokedAt: start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.False(t, revoked.Assignment.IsActive)
	require.NotNil(t, revoked.Assignment.RevokedAt)

	history, err := store.ListUserRoles(ctx, "user-1", start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "a-1", history[0].AssignmentID)

	permissions, err := store.ListEffectivePermissions(ctx, "user-1", start.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, permissions)

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "o-1", pending[0].OutboxID)
	assert.Equal(t, "o-3", pending[1].OutboxID)

	require.NoError(t, store.MarkOutboxPublished(ctx, "o-1", start))
	require.Error(t, store.MarkOutboxPublished(ctx, "missing", start))
	pending, err = store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "o-3", pending[0].OutboxID)
}

func TestStoreRejectsReusedOutboxIDWithoutGranting(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, err := store.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: "a-1", OutboxID: "o-1", UserID: "user-1", RoleID: "reader", AssignedAt: now,
	})
	require.NoError(t, err)
	_, err = store.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: "a-2", OutboxID: "o-1", UserID: "user-2", RoleID: "reader", AssignedAt: now,
	})
	require.ErrorIs(t, err, domainerrors.ErrIdempotencyConflict)

	roles, err := store.ListUserRoles(ctx, "user-2", now)
	require.NoError(t, err)
	assert.Empty(t, roles)
}

func TestStoreHidesExpiredGrantsAndAllowsRegrant(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	expiry := now.Add(time.Hour)

	_, err := store.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: "a-1", OutboxID: "o-1", UserID: "user-1", RoleID: "editor",
		AssignedAt: now, ExpiresAt: &expiry,
	})
	require.NoError(t, err)

	later := now.Add(2 * time.Hour)
	roles, err := store.ListUserRoles(ctx, "user-1", later)
	require.NoError(t, err)
	assert.Empty(t, roles)

	_, err = store.GrantRole(ctx, ports.GrantRoleInput{
		AssignmentID: "a-2", OutboxID: "o-2", UserID: "user-1", RoleID: "editor", AssignedAt: later,
	})
	require.NoError(t, err)
	roles, err = store.ListUserRoles(ctx, "user-1", later)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	assert.Equal(t, "a-2", roles[0].AssignmentID)
}

func TestStoreReplyAndEventReservations(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	record := ports.IdempotencyRecord{Key: "k", RequestHash: "h1", ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, store.PutRecord(ctx, record))
	require.ErrorIs(t, store.PutRecord(ctx, ports.IdempotencyRecord{Key: "k", RequestHash: "h2"}),
		domainerrors.ErrIdempotencyConflict)

	_, ok, err := store.GetRecord(ctx, "k", now)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, err = store.GetRecord(ctx, "k", now.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	seen, err := store.ReserveEvent(ctx, "evt-1", "p1", now)
	require.NoError(t, err)
	assert.False(t, seen)
	seen, err = store.ReserveEvent(ctx, "evt-1", "p1", now)
	require.NoError(t, err)
	assert.True(t, seen)
	_, err = store.ReserveEvent(ctx, "evt-1", "p2", now)
	require.ErrorIs(t, err, domainerrors.ErrIdempotencyConflict)
}
