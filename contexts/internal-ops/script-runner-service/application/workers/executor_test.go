package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorRunsSubmittedJobs(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{CorePoolSize: 2, QueueCapacity: 10}, nil)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, executor.Submit(string(rune('a'+i)), func(context.Context) { ran.Add(1) }))
	}
	require.NoError(t, executor.Shutdown(context.Background()))
	assert.Equal(t, int32(5), ran.Load())
}

func TestExecutorSubmitDoesNotBlockWhenSaturated(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{CorePoolSize: 1, QueueCapacity: 1}, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, executor.Submit("running", func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, executor.Submit("queued", func(context.Context) {}))

	err := executor.Submit("overflow", func(context.Context) {})
	require.ErrorIs(t, err, domainerrors.ErrExecutorSaturated)

	close(release)
	require.NoError(t, executor.Shutdown(context.Background()))
	require.ErrorIs(t, executor.Submit("late", func(context.Context) {}), domainerrors.ErrExecutorStopped)
}

func TestExecutorCancelRunningAndQueuedJobs(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{CorePoolSize: 1, QueueCapacity: 5}, nil)
	started := make(chan struct{})
	runningErr := make(chan error, 1)
	queuedErr := make(chan error, 1)

	require.NoError(t, executor.Submit("running", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		runningErr <- ctx.Err()
	}))
	require.NoError(t, executor.Submit("queued", func(ctx context.Context) {
		queuedErr <- ctx.Err()
	}))
	<-started

	assert.True(t, executor.Cancel("queued"))
	assert.True(t, executor.Cancel("running"))
	assert.False(t, executor.Cancel("unknown"))

	require.ErrorIs(t, <-runningErr, context.Canceled)
	require.ErrorIs(t, <-queuedErr, context.Canceled)
	require.NoError(t, executor.Shutdown(context.Background()))
}

func TestExecutorShutdownHonoursDeadline(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{CorePoolSize: 1, QueueCapacity: 1}, nil)
	started := make(chan struct{})
	require.NoError(t, executor.Submit("slow", func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, executor.Shutdown(ctx), context.DeadlineExceeded)
}

func TestExecutorShutdownReturnsWhileJobIgnoresCancellation(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{CorePoolSize: 1, QueueCapacity: 1}, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	require.NoError(t, executor.Submit("stubborn", func(context.Context) {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result := make(chan error, 1)
	go func() { result <- executor.Shutdown(ctx) }()

	select {
	case err := <-result:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown blocked on a job that ignores cancellation")
	}
}

func TestExecutorRecoversFromPanickingJob(t *testing.T) {
	executor := NewExecutor(ExecutorConfig{CorePoolSize: 1, QueueCapacity: 2}, nil)
	var ran atomic.Bool
	require.NoError(t, executor.Submit("panics", func(context.Context) { panic("boom") }))
	require.NoError(t, executor.Submit("after", func(context.Context) { ran.Store(true) }))
	require.NoError(t, executor.Shutdown(context.Background()))
	assert.True(t, ran.Load())
}
