package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"

	"github.com/avast/retry-go/v4"
)

// OutboxRelay publishes pending item.license_changed rows and marks them sent.
type OutboxRelay struct {
	Outbox         ports.OutboxRepository
	Publisher      ports.EventPublisher
	Clock          ports.Clock
	Topic          string
	BatchSize      int
	PublishRetries uint
	RetryDelay     time.Duration
	Logger         *slog.Logger
}

func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}
	topic := r.Topic
	if topic == "" {
		topic = ports.LicenseChangedEventType
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("outbox list pending failed",
			"event", "cc_outbox_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, message := range pending {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload decode failed",
				"event", "cc_outbox_decode_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}

		err := retry.Do(
			func() error {
				return r.Publisher.Publish(ctx, topic, envelope)
			},
			retry.Context(ctx),
			retry.Attempts(r.attempts()),
			retry.Delay(r.retryDelay()),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(attempt uint, err error) {
				logger.Warn("outbox publish retry",
					"event", "cc_outbox_publish_retry",
					"module", application.ModuleName,
					"layer", "worker",
					"outbox_id", message.OutboxID,
					"attempt", attempt+1,
					"error", err.Error(),
				)
			}),
		)
		if err != nil {
			logger.Error("outbox publish failed",
				"event", "cc_outbox_publish_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"event_id", envelope.EventID,
				"event_type", envelope.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxSent(ctx, message.OutboxID, now); err != nil {
			logger.Error("outbox mark sent failed",
				"event", "cc_outbox_mark_sent_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"outbox_id", message.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	if len(pending) > 0 {
		logger.Info("outbox relay cycle completed",
			"event", "cc_outbox_relay_completed",
			"module", application.ModuleName,
			"layer", "worker",
			"sent_count", len(pending),
		)
	}
	return nil
}

func (r OutboxRelay) attempts() uint {
	if r.PublishRetries == 0 {
		return 3
	}
	return r.PublishRetries
}

func (r OutboxRelay) retryDelay() time.Duration {
	if r.RetryDelay <= 0 {
		return 200 * time.Millisecond
	}
	return r.RetryDelay
}
