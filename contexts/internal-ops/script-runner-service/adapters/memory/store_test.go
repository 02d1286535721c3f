package memory

import (
	"context"
	"testing"
	"time"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreProcessLifecycle(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.NoError(t, store.CreateProcess(ctx, entities.Process{
		ProcessID: "p1", ScriptName: "metadata-export", UserID: "u1",
		Status: entities.ProcessScheduled, CreatedAt: now,
	}))
	require.ErrorIs(t, store.CreateProcess(ctx, entities.Process{ProcessID: "p1"}), domainerrors.ErrInvalidRequest)

	require.NoError(t, store.MarkRunning(ctx, "p1", now.Add(time.Second)))
	require.ErrorIs(t, store.MarkRunning(ctx, "p1", now), domainerrors.ErrInvalidTransition)

	require.NoError(t, store.FinishProcess(ctx, "p1", ports.ProcessResult{
		Status: entities.ProcessCompleted, Output: []byte("csv"), Log: []string{"done"}, FinishedAt: now.Add(2 * time.Second),
	}))
	require.ErrorIs(t, store.FinishProcess(ctx, "p1", ports.ProcessResult{Status: entities.ProcessFailed}), domainerrors.ErrInvalidTransition)

	process, err := store.GetProcess(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, entities.ProcessCompleted, process.Status)
	assert.Equal(t, "csv", string(process.Output))
	assert.Equal(t, []string{"done"}, process.Log)
	require.NotNil(t, process.StartedAt)
	require.NotNil(t, process.FinishedAt)

	_, err = store.GetProcess(ctx, "missing")
	require.ErrorIs(t, err, domainerrors.ErrProcessNotFound)
}

func TestStoreListProcessesPaginatesNewestFirst(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, store.CreateProcess(ctx, entities.Process{
			ProcessID: id, ScriptName: "metadata-export", Status: entities.ProcessScheduled,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, next, err := store.ListProcesses(ctx, ports.ProcessFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "p3", page[0].ProcessID)
	require.NotEmpty(t, next)

	page, next, err = store.ListProcesses(ctx, ports.ProcessFilter{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "p1", page[0].ProcessID)
	assert.Empty(t, next)

	page, _, err = store.ListProcesses(ctx, ports.ProcessFilter{ScriptName: "metadata-import"})
	require.NoError(t, err)
	assert.Empty(t, page)

	_, _, err = store.ListProcesses(ctx, ports.ProcessFilter{Cursor: "%%%"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}
