package application

import (
	"encoding/json"
	"time"

	"ccdepot/contexts/identity-access/authorization-service/ports"
)

const SourceService = "authorization-service"

// BuildPolicyChangedEvent renders the outbox payload written with each role mutation.
func BuildPolicyChangedEvent(eventID string, userID string, roleID string, action string, occurredAt time.Time) (ports.PolicyChangedEvent, error) {
	data, err := json.Marshal(map[string]string{
		"user_id":     userID,
		"role_id":     roleID,
		"action_type": action,
	})
	if err != nil {
		return ports.PolicyChangedEvent{}, err
	}
	return ports.PolicyChangedEvent{
		EventID:          eventID,
		EventType:        ports.PolicyChangedEventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    SourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "user_id",
		PartitionKey:     userID,
		Data:             data,
	}, nil
}
