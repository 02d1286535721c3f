package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/ports"

	"github.com/avast/retry-go/v4"
)

// OutboxRelay moves pending authz.policy_changed rows onto the publisher.
// Rows are acknowledged one at a time, so a failure leaves the rest pending
// for the next pass.
type OutboxRelay struct {
	Outbox         ports.OutboxRepository
	Publisher      ports.PolicyChangedPublisher
	Clock          ports.Clock
	BatchSize      int
	PublishRetries uint
	RetryDelay     time.Duration
	Logger         *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger).With(
		"module", application.ModuleName,
		"layer", "worker",
	)
	batch := r.BatchSize
	if batch <= 0 {
		batch = 100
	}

	rows, err := r.Outbox.ListPendingOutbox(ctx, batch)
	if err != nil {
		logger.Error("authz outbox list failed", "event", "authz_outbox_list_failed", "error", err.Error())
		return err
	}

	published := 0
	for _, row := range rows {
		if err := r.relay(ctx, row); err != nil {
			logger.Error("authz outbox relay stopped",
				"event", "authz_outbox_relay_stopped",
				"outbox_id", row.OutboxID,
				"published", published,
				"error", err.Error(),
			)
			return err
		}
		published++
	}
	if published > 0 {
		logger.Info("authz outbox relay pass completed",
			"event", "authz_outbox_relay_completed",
			"published", published,
		)
	}
	return nil
}

func (r OutboxRelay) relay(ctx context.Context, row ports.OutboxMessage) error {
	var event ports.PolicyChangedEvent
	if err := json.Unmarshal(row.Payload, &event); err != nil {
		return fmt.Errorf("decode outbox row %s: %w", row.OutboxID, err)
	}
	attempts := r.PublishRetries
	if attempts == 0 {
		attempts = 3
	}
	delay := r.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	err := retry.Do(
		func() error { return r.Publisher.PublishPolicyChanged(ctx, event) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("publish event %s: %w", event.EventID, err)
	}
	return r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now())
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
