package events

import (
	"context"
	"log/slog"

	application "ccdepot/contexts/identity-access/authorization-service/application"
	"ccdepot/contexts/identity-access/authorization-service/ports"
	contractsv1 "ccdepot/contracts/events/v1"
)

// Bus is the subset of the platform event bus used for policy events.
type Bus interface {
	Publish(ctx context.Context, topic string, event contractsv1.Envelope) error
}

// Publisher forwards policy-change envelopes onto the event bus topic of the
// same name.
type Publisher struct {
	bus    Bus
	logger *slog.Logger
}

func NewPublisher(bus Bus, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{bus: bus, logger: logger}
}

func (p *Publisher) PublishPolicyChanged(ctx context.Context, event ports.PolicyChangedEvent) error {
	if p.bus != nil {
		if err := p.bus.Publish(ctx, ports.PolicyChangedEventType, event); err != nil {
			return err
		}
	}
	p.logger.Info("policy changed event published",
		"event", "authz_policy_changed_published",
		"module", application.ModuleName,
		"layer", "adapter",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"partition_key", event.PartitionKey,
	)
	return nil
}
