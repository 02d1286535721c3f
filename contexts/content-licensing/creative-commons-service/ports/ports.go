package ports

import (
	"context"
	"io"
	"time"

	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	contractsv1 "ccdepot/contracts/events/v1"
)

// ItemListFilter defines read-side filtering/pagination for the item catalog.
type ItemListFilter struct {
	CollectionID string
	LicensedOnly bool
	Cursor       string
	Limit        int
}

// ItemRepository owns item, bundle and metadata persistence.
type ItemRepository interface {
	GetItem(ctx context.Context, itemID string) (entities.Item, error)
	ListItems(ctx context.Context, filter ItemListFilter) ([]entities.Item, string, error)
	// UpdateLicense applies update and records its outbox event in one
	// transaction. It returns the bitstreams of the dropped CC-LICENSE bundles.
	UpdateLicense(ctx context.Context, itemID string, update LicenseUpdate) ([]entities.Bitstream, error)
}

// LicenseUpdate is a single license mutation of one item.
type LicenseUpdate struct {
	Fields []entities.FieldChange
	// Bundle replaces every CC-LICENSE bundle when set.
	Bundle *entities.Bundle
	// DropBundles removes every CC-LICENSE bundle when Bundle is nil.
	DropBundles bool
	Change      entities.LicenseChange
}

// BitstreamStore persists bitstream bytes addressed by storage key.
type BitstreamStore interface {
	Put(ctx context.Context, key string, content io.Reader) (StoredObject, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject describes bytes written by BitstreamStore.Put.
type StoredObject struct {
	Key       string
	SizeBytes int64
	Checksum  string
}

const (
	PermissionItemRead  = "item.read"
	PermissionItemWrite = "item.write"
)

// Authorizer decides whether actorID may perform permission on an item.
// Denials are reported as domain ErrForbidden.
type Authorizer interface {
	Authorize(ctx context.Context, actorID string, permission string, itemID string) error
}

// FieldCache keeps resolved license field names beyond a single process.
type FieldCache interface {
	GetField(ctx context.Context, fieldID string) (string, bool, error)
	SetField(ctx context.Context, fieldID string, fieldName string) error
}

// Settings carries the cc.* configuration switches.
type Settings struct {
	Enabled      bool
	SetName      bool
	AddBitstream bool
	Fields       map[string]string
}

// Clock allows deterministic testing of timestamps.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts bundle/bitstream/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

const LicenseChangedEventType = "item.license_changed"
