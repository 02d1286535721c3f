package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	ccworkers "ccdepot/contexts/content-licensing/creative-commons-service/application/workers"
	authzworkers "ccdepot/contexts/identity-access/authorization-service/application/workers"
	contractsv1 "ccdepot/contracts/events/v1"
	"ccdepot/internal/platform/config"
	"ccdepot/internal/platform/httpserver"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 30 * time.Second

type APIApp struct {
	runtime *Runtime
	server  *httpserver.Server
	relay   relayLoop
}

type WorkerApp struct {
	runtime *Runtime
	relay   relayLoop
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := NewLogger(cfg, "api")
	rt, err := BuildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	server := httpserver.New(rt.Licensing, rt.Authorization, rt.Scripts, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		runtime: rt,
		server:  server,
		relay:   newRelayLoop(rt),
	}, nil
}

// BuildWorker wires the relay process. It needs Postgres since in-memory
// outboxes are only visible to the API process that owns them.
func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	logger := NewLogger(cfg, "worker")
	rt, err := BuildRuntime(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &WorkerApp{runtime: rt, relay: newRelayLoop(rt)}, nil
}

// Run serves HTTP until ctx ends, then stops the server and drains the script
// executor. In-memory wiring also relays outboxes here.
func (a *APIApp) Run(ctx context.Context) error {
	logger := a.runtime.Logger
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		serverErr := a.server.Shutdown(shutdownCtx)
		executorErr := a.runtime.Scripts.Executor.Shutdown(shutdownCtx)
		return errors.Join(serverErr, executorErr)
	})
	if a.runtime.InMemory() {
		a.runtime.Subscribe(groupCtx)
		group.Go(func() error { return a.relay.Run(groupCtx) })
	}

	logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", moduleName,
		"layer", "platform",
		"in_memory", a.runtime.InMemory(),
	)
	return group.Wait()
}

func (a *APIApp) Close() error {
	return a.runtime.Close()
}

// Run relays outboxes and serves bus consumers until ctx ends. The worker
// never schedules scripts, so its executor is only stopped.
func (w *WorkerApp) Run(ctx context.Context) error {
	logger := w.runtime.Logger
	w.runtime.Subscribe(ctx)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return w.relay.Run(groupCtx) })
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return w.runtime.Scripts.Executor.Shutdown(shutdownCtx)
	})

	logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", moduleName,
		"layer", "platform",
		"poll_interval", w.relay.interval.String(),
	)
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	return w.runtime.Close()
}

// relayLoop polls both module outboxes on a fixed interval.
type relayLoop struct {
	licensing ccworkers.OutboxRelay
	authz     authzworkers.OutboxRelay
	interval  time.Duration
	logger    *slog.Logger
}

func newRelayLoop(rt *Runtime) relayLoop {
	interval := rt.Config.OutboxPollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return relayLoop{
		licensing: rt.Licensing.Relay,
		authz:     rt.Authorization.Relay,
		interval:  interval,
		logger:    rt.Logger,
	}
}

// Run keeps polling after a failed pass; relays leave failed rows pending.
func (l relayLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		l.runOnce(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (l relayLoop) runOnce(ctx context.Context) {
	if err := l.licensing.RunOnce(ctx); err != nil && ctx.Err() == nil {
		l.logger.Warn("license outbox relay pass failed",
			"event", "bootstrap_license_relay_failed",
			"module", moduleName,
			"layer", "platform",
			"error", err.Error(),
		)
	}
	if err := l.authz.RunOnce(ctx); err != nil && ctx.Err() == nil {
		l.logger.Warn("authz outbox relay pass failed",
			"event", "bootstrap_authz_relay_failed",
			"module", moduleName,
			"layer", "platform",
			"error", err.Error(),
		)
	}
}

func licenseChangeLogger(logger *slog.Logger) func(context.Context, contractsv1.Envelope) error {
	return func(_ context.Context, event contractsv1.Envelope) error {
		logger.Info("license change observed",
			"event", "bootstrap_license_change_observed",
			"module", moduleName,
			"layer", "platform",
			"event_id", event.EventID,
			"item_id", event.PartitionKey,
		)
		return nil
	}
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
