package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// Store is an in-memory adapter implementing the creative commons ports for
// local runtime and tests. It is not intended as production persistence.
type Store struct {
	mu          sync.RWMutex
	items       map[string]entities.Item
	objects     map[string][]byte
	fields      map[string]string
	outbox      map[string]ports.OutboxMessage
	outboxOrder []string
	outboxSent  map[string]time.Time
	sequence    uint64
	logger      *slog.Logger
}

// NewStore seeds the item catalog.
func NewStore(seedItems []entities.Item, logger *slog.Logger) *Store {
	itemMap := make(map[string]entities.Item, len(seedItems))
	for _, item := range seedItems {
		itemMap[item.ItemID] = cloneItem(item)
	}
	return &Store{
		items:       itemMap,
		objects:     make(map[string][]byte),
		fields:      make(map[string]string),
		outbox:      make(map[string]ports.OutboxMessage),
		outboxOrder: make([]string, 0),
		outboxSent:  make(map[string]time.Time),
		logger:      application.ResolveLogger(logger),
	}
}

func (s *Store) GetItem(_ context.Context, itemID string) (entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[itemID]
	if !ok {
		return entities.Item{}, domainerrors.ErrItemNotFound
	}
	return cloneItem(item), nil
}

func (s *Store) ListItems(_ context.Context, filter ports.ItemListFilter) ([]entities.Item, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]entities.Item, 0, len(s.items))
	for _, item := range s.items {
		if filter.CollectionID != "" && item.CollectionID != filter.CollectionID {
			continue
		}
		if filter.LicensedOnly && !item.HasLicense() {
			continue
		}
		filtered = append(filtered, item)
	}
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].ItemID < filtered[j].ItemID
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	start := decodeCursor(filter.Cursor)
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	page := make([]entities.Item, 0, end-start)
	for _, item := range filtered[start:end] {
		page = append(page, cloneItem(item))
	}
	nextCursor := ""
	if end < len(filtered) {
		nextCursor = encodeCursor(end)
	}
	return page, nextCursor, nil
}

// ListAllItems returns the given items, or every item when itemIDs is empty.
func (s *Store) ListAllItems(_ context.Context, itemIDs []string) ([]entities.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entities.Item
	if len(itemIDs) == 0 {
		for _, item := range s.items {
			out = append(out, cloneItem(item))
		}
	} else {
		for _, itemID := range itemIDs {
			item, ok := s.items[itemID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", domainerrors.ErrItemNotFound, itemID)
			}
			out = append(out, cloneItem(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

func (s *Store) UpdateLicense(
	_ context.Context,
	itemID string,
	update ports.LicenseUpdate,
) ([]entities.Bitstream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// One critical section stands in for the Postgres transaction.
	item, ok := s.items[itemID]
	if !ok {
		return nil, domainerrors.ErrItemNotFound
	}
	payload, err := outboxPayload(update.Change)
	if err != nil {
		return nil, err
	}

	var dropped []entities.Bitstream
	if update.Bundle != nil || update.DropBundles {
		var kept []entities.Bundle
		kept, dropped = splitLicenseBundles(item.Bundles)
		if update.Bundle != nil {
			kept = append(kept, cloneBundle(*update.Bundle))
		}
		item.Bundles = kept
	}
	if len(update.Fields) > 0 {
		item.Metadata = applyFieldChanges(item.Metadata, update.Fields)
	}
	item.UpdatedAt = update.Change.OccurredAt.UTC()
	s.items[itemID] = item
	s.appendOutbox(update.Change, payload)

	s.logger.Debug("license updated in memory store",
		"event", "memory_update_license",
		"module", application.ModuleName,
		"layer", "adapter",
		"item_id", itemID,
		"field_changes", len(update.Fields),
		"dropped_count", len(dropped),
	)
	return dropped, nil
}

// UpsertItem stores item metadata, keeping the bundles of an existing item.
func (s *Store) UpsertItem(_ context.Context, item entities.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := cloneItem(item)
	if existing, ok := s.items[item.ItemID]; ok {
		stored.Bundles = existing.Bundles
		stored.CreatedAt = existing.CreatedAt
	}
	s.items[item.ItemID] = stored
	return nil
}

// ReplaceFields rewrites metadata fields without emitting a license event.
func (s *Store) ReplaceFields(_ context.Context, itemID string, changes []entities.FieldChange, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[itemID]
	if !ok {
		return domainerrors.ErrItemNotFound
	}
	item.Metadata = applyFieldChanges(item.Metadata, changes)
	item.UpdatedAt = updatedAt.UTC()
	s.items[itemID] = item
	return nil
}

func (s *Store) Put(ctx context.Context, key string, content io.Reader) (ports.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return ports.StoredObject{}, err
	}
	raw, err := io.ReadAll(content)
	if err != nil {
		return ports.StoredObject{}, fmt.Errorf("read bitstream content: %w", err)
	}
	sum := md5.Sum(raw)

	s.mu.Lock()
	s.objects[key] = raw
	s.mu.Unlock()

	return ports.StoredObject{
		Key:       key,
		SizeBytes: int64(len(raw)),
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}

func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("bitstream object %q not stored", key)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), raw...))), nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

// HasObject reports whether bytes are stored under key.
func (s *Store) HasObject(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[key]
	return ok
}

func (s *Store) GetField(_ context.Context, fieldID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.fields[fieldID]
	return value, ok, nil
}

func (s *Store) SetField(_ context.Context, fieldID string, fieldName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fields[fieldID] = fieldName
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		if msg, ok := s.outbox[id]; ok {
			messages = append(messages, msg)
		}
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariant
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		if evt, ok := s.outbox[id]; ok {
			events = append(events, evt)
		}
	}
	return events
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("cc-%d", value), nil
}

func (s *Store) appendOutbox(change entities.LicenseChange, payload []byte) {
	s.outbox[change.EventID] = ports.OutboxMessage{
		OutboxID:     change.EventID,
		EventType:    ports.LicenseChangedEventType,
		PartitionKey: change.ItemID,
		Payload:      payload,
		CreatedAt:    change.OccurredAt.UTC(),
	}
	s.outboxOrder = append(s.outboxOrder, change.EventID)
}

func outboxPayload(change entities.LicenseChange) ([]byte, error) {
	envelope, err := application.BuildLicenseChangedEnvelope(change)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}

func splitLicenseBundles(bundles []entities.Bundle) ([]entities.Bundle, []entities.Bitstream) {
	kept := make([]entities.Bundle, 0, len(bundles))
	var dropped []entities.Bitstream
	for _, bundle := range bundles {
		if bundle.Name == entities.LicenseBundleName {
			dropped = append(dropped, bundle.Bitstreams...)
			continue
		}
		kept = append(kept, bundle)
	}
	return kept, dropped
}

func applyFieldChanges(metadata []entities.MetadataValue, changes []entities.FieldChange) []entities.MetadataValue {
	out := append([]entities.MetadataValue(nil), metadata...)
	for _, change := range changes {
		filtered := out[:0:0]
		for _, value := range out {
			if !change.Field.Matches(value) {
				filtered = append(filtered, value)
			}
		}
		for place := range change.Values {
			filtered = append(filtered, change.ValueAt(place))
		}
		out = filtered
	}
	return out
}

func cloneItem(item entities.Item) entities.Item {
	out := item
	out.Metadata = append([]entities.MetadataValue(nil), item.Metadata...)
	out.Bundles = make([]entities.Bundle, 0, len(item.Bundles))
	for _, bundle := range item.Bundles {
		out.Bundles = append(out.Bundles, cloneBundle(bundle))
	}
	return out
}

func cloneBundle(bundle entities.Bundle) entities.Bundle {
	out := bundle
	out.Bitstreams = append([]entities.Bitstream(nil), bundle.Bitstreams...)
	return out
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	index, err := strconv.Atoi(string(raw))
	if err != nil || index < 0 {
		return 0
	}
	return index
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
