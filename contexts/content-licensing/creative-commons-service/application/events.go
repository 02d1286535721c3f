package application

import (
	"encoding/json"

	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

const SourceService = "creative-commons-service"

// BuildLicenseChangedEnvelope renders the outbox payload for a license change.
func BuildLicenseChangedEnvelope(change entities.LicenseChange) (ports.EventEnvelope, error) {
	data, err := json.Marshal(map[string]string{
		"item_id":     change.ItemID,
		"actor_id":    change.ActorID,
		"action":      string(change.Action),
		"license_uri": change.LicenseURI,
	})
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          change.EventID,
		EventType:        ports.LicenseChangedEventType,
		OccurredAt:       change.OccurredAt.UTC(),
		SourceService:    SourceService,
		SchemaVersion:    1,
		PartitionKeyPath: "item_id",
		PartitionKey:     change.ItemID,
		Data:             data,
	}, nil
}
