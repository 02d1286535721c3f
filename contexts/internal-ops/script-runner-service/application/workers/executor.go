package workers

import (
	"context"
	"log/slog"
	"sync"

	application "ccdepot/contexts/internal-ops/script-runner-service/application"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultCorePoolSize  = 5
	DefaultQueueCapacity = 100
)

type ExecutorConfig struct {
	CorePoolSize  int
	QueueCapacity int
}

type job struct {
	processID string
	ctx       context.Context
	run       func(ctx context.Context)
}

// Executor runs jobs on a fixed set of core workers fed by a bounded queue.
// Every job gets its own context so it can be cancelled while queued or running.
type Executor struct {
	mu      sync.Mutex
	queue   chan job
	cancels map[string]context.CancelFunc
	closed  bool

	base   context.Context
	stop   context.CancelFunc
	group  *errgroup.Group
	size   int
	logger *slog.Logger
}

func NewExecutor(cfg ExecutorConfig, logger *slog.Logger) *Executor {
	size := cfg.CorePoolSize
	if size <= 0 {
		size = DefaultCorePoolSize
	}
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	base, stop := context.WithCancel(context.Background())
	e := &Executor{
		queue:   make(chan job, capacity),
		cancels: make(map[string]context.CancelFunc),
		base:    base,
		stop:    stop,
		group:   &errgroup.Group{},
		size:    size,
		logger:  application.ResolveLogger(logger),
	}
	for worker := 0; worker < size; worker++ {
		e.group.Go(func() error {
			e.work(worker)
			return nil
		})
	}
	e.logger.Info("script executor started",
		"event", "script_executor_started",
		"module", application.ModuleName,
		"layer", "worker",
		"core_pool_size", size,
		"queue_capacity", capacity,
	)
	return e
}

// Submit enqueues run without blocking. A full queue yields
// ErrExecutorSaturated; a stopped executor yields ErrExecutorStopped.
func (e *Executor) Submit(processID string, run func(ctx context.Context)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domainerrors.ErrExecutorStopped
	}
	ctx, cancel := context.WithCancel(e.base)
	select {
	case e.queue <- job{processID: processID, ctx: ctx, run: run}:
		e.cancels[processID] = cancel
		return nil
	default:
		cancel()
		e.logger.Warn("script executor saturated",
			"event", "script_executor_saturated",
			"module", application.ModuleName,
			"layer", "worker",
			"process_id", processID,
		)
		return domainerrors.ErrExecutorSaturated
	}
}

// Cancel cancels a queued or running job. It reports false when the job is
// unknown or already done.
func (e *Executor) Cancel(processID string) bool {
	e.mu.Lock()
	cancel, ok := e.cancels[processID]
	e.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Pending is the number of queued jobs not yet picked by a worker.
func (e *Executor) Pending() int {
	return len(e.queue)
}

// Shutdown stops accepting jobs and waits for queued and running ones to
// finish. When ctx ends first, running jobs are cancelled and ctx.Err() is
// returned at once; jobs that ignore cancellation are left to finish alone.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = e.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.stop()
		e.logger.Info("script executor stopped",
			"event", "script_executor_stopped",
			"module", application.ModuleName,
			"layer", "worker",
		)
		return nil
	case <-ctx.Done():
		e.stop()
		e.logger.Warn("script executor shutdown abandoned running jobs",
			"event", "script_executor_shutdown_abandoned",
			"module", application.ModuleName,
			"layer", "worker",
			"error", ctx.Err(),
		)
		return ctx.Err()
	}
}

func (e *Executor) work(worker int) {
	for item := range e.queue {
		e.logger.Debug("script job picked",
			"event", "script_job_picked",
			"module", application.ModuleName,
			"layer", "worker",
			"worker", worker,
			"process_id", item.processID,
		)
		e.runJob(item)
	}
}

func (e *Executor) runJob(item job) {
	defer func() {
		e.mu.Lock()
		if cancel, ok := e.cancels[item.processID]; ok {
			cancel()
			delete(e.cancels, item.processID)
		}
		e.mu.Unlock()
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			e.logger.Error("script job panicked",
				"event", "script_job_panicked",
				"module", application.ModuleName,
				"layer", "worker",
				"process_id", item.processID,
				"panic", recovered,
			)
		}
	}()
	item.run(item.ctx)
}
