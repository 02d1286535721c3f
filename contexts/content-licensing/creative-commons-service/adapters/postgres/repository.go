package postgresadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
)

// Repository persists items, bundles, bitstream metadata and the license
// outbox in Postgres. Bitstream bytes live in a separate BitstreamStore.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetItem(ctx context.Context, itemID string) (entities.Item, error) {
	return loadItem(r.db.WithContext(ctx), itemID, false)
}

func (r *Repository) ListItems(ctx context.Context, filter ports.ItemListFilter) ([]entities.Item, string, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&itemModel{})
	if filter.CollectionID != "" {
		tx = tx.Where("collection_id = ?", filter.CollectionID)
	}
	if filter.LicensedOnly {
		tx = tx.Where(`EXISTS (
			SELECT 1 FROM cc_bundles b
			JOIN cc_bitstreams s ON s.bundle_id = b.bundle_id
			WHERE b.item_id = cc_items.item_id AND b.name = ? AND s.name IN ?
		)`, entities.LicenseBundleName, []string{entities.BitstreamNameLicenseRDF, entities.BitstreamNameLicenseText})
	}

	var rows []itemModel
	if err := tx.Order("item_id ASC").
		Offset(decodeCursor(filter.Cursor)).
		Limit(limit + 1).
		Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = encodeCursor(decodeCursor(filter.Cursor) + limit)
	}

	items := make([]entities.Item, 0, len(rows))
	for _, row := range rows {
		item, err := hydrateItem(r.db.WithContext(ctx), row)
		if err != nil {
			return nil, "", err
		}
		items = append(items, item)
	}
	return items, nextCursor, nil
}

// ListAllItems returns the given items, or every item when itemIDs is empty.
func (r *Repository) ListAllItems(ctx context.Context, itemIDs []string) ([]entities.Item, error) {
	tx := r.db.WithContext(ctx).Model(&itemModel{})
	if len(itemIDs) > 0 {
		tx = tx.Where("item_id IN ?", itemIDs)
	}
	var rows []itemModel
	if err := tx.Order("item_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(itemIDs) > 0 && len(rows) != len(itemIDs) {
		return nil, domainerrors.ErrItemNotFound
	}
	items := make([]entities.Item, 0, len(rows))
	for _, row := range rows {
		item, err := hydrateItem(r.db.WithContext(ctx), row)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) UpdateLicense(
	ctx context.Context,
	itemID string,
	update ports.LicenseUpdate,
) ([]entities.Bitstream, error) {
	var dropped []entities.Bitstream
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadItem(tx, itemID, true); err != nil {
			return err
		}
		if len(update.Fields) > 0 {
			if err := replaceFields(tx, itemID, update.Fields); err != nil {
				return err
			}
		}
		if update.Bundle != nil || update.DropBundles {
			removed, err := deleteLicenseBundles(tx, itemID)
			if err != nil {
				return err
			}
			dropped = removed
		}
		if bundle := update.Bundle; bundle != nil {
			if err := tx.Create(bundleModelFromEntity(itemID, *bundle)).Error; err != nil {
				return err
			}
			for _, bitstream := range bundle.Bitstreams {
				if err := tx.Create(bitstreamModelFromEntity(bundle.BundleID, bitstream)).Error; err != nil {
					if isUniqueViolation(err) {
						return fmt.Errorf("%w: duplicate bitstream %s", domainerrors.ErrRepositoryInvariant, bitstream.Name)
					}
					return err
				}
			}
		}
		return touchAndRecord(tx, itemID, update.Change)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("license updated",
		"event", "postgres_update_license",
		"module", application.ModuleName,
		"layer", "adapter",
		"item_id", itemID,
		"field_changes", len(update.Fields),
		"dropped_count", len(dropped),
	)
	return dropped, nil
}

// ReplaceFields rewrites metadata fields without emitting a license event.
func (r *Repository) ReplaceFields(ctx context.Context, itemID string, changes []entities.FieldChange, updatedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadItem(tx, itemID, true); err != nil {
			return err
		}
		if err := replaceFields(tx, itemID, changes); err != nil {
			return err
		}
		return tx.Model(&itemModel{}).
			Where("item_id = ?", itemID).
			Update("updated_at", updatedAt.UTC()).Error
	})
}

// UpsertItem inserts or refreshes an item row with its metadata. Bundles are
// left untouched. Used by seeding and catalog imports.
func (r *Repository) UpsertItem(ctx context.Context, item entities.Item) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := itemModelFromEntity(item)
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"handle", "name", "collection_id", "withdrawn", "updated_at"}),
		}).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("item_id = ?", item.ItemID).Delete(&metadataValueModel{}).Error; err != nil {
			return err
		}
		for _, value := range item.Metadata {
			model := metadataModelFromEntity(item.ItemID, value)
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC, outbox_id ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariant
	}
	return nil
}

func loadItem(tx *gorm.DB, itemID string, forUpdate bool) (entities.Item, error) {
	query := tx
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row itemModel
	if err := query.Where("item_id = ?", itemID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Item{}, domainerrors.ErrItemNotFound
		}
		return entities.Item{}, err
	}
	return hydrateItem(tx, row)
}

func hydrateItem(tx *gorm.DB, row itemModel) (entities.Item, error) {
	item := row.toEntity()

	var values []metadataValueModel
	if err := tx.Where("item_id = ?", row.ItemID).
		Order("schema_name, element, qualifier, place").
		Find(&values).Error; err != nil {
		return entities.Item{}, err
	}
	for _, value := range values {
		item.Metadata = append(item.Metadata, value.toEntity())
	}

	var bundles []bundleModel
	if err := tx.Where("item_id = ?", row.ItemID).Order("created_at, bundle_id").Find(&bundles).Error; err != nil {
		return entities.Item{}, err
	}
	if len(bundles) == 0 {
		return item, nil
	}
	bundleIDs := make([]string, 0, len(bundles))
	for _, bundle := range bundles {
		bundleIDs = append(bundleIDs, bundle.BundleID)
	}
	var bitstreams []bitstreamModel
	if err := tx.Where("bundle_id IN ?", bundleIDs).Order("created_at, bitstream_id").Find(&bitstreams).Error; err != nil {
		return entities.Item{}, err
	}
	byBundle := make(map[string][]entities.Bitstream, len(bundles))
	for _, bitstream := range bitstreams {
		byBundle[bitstream.BundleID] = append(byBundle[bitstream.BundleID], bitstream.toEntity())
	}
	for _, bundle := range bundles {
		item.Bundles = append(item.Bundles, entities.Bundle{
			BundleID:   bundle.BundleID,
			ItemID:     bundle.ItemID,
			Name:       bundle.Name,
			Bitstreams: byBundle[bundle.BundleID],
		})
	}
	return item, nil
}

func deleteLicenseBundles(tx *gorm.DB, itemID string) ([]entities.Bitstream, error) {
	var bundles []bundleModel
	if err := tx.Where("item_id = ? AND name = ?", itemID, entities.LicenseBundleName).Find(&bundles).Error; err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, nil
	}
	bundleIDs := make([]string, 0, len(bundles))
	for _, bundle := range bundles {
		bundleIDs = append(bundleIDs, bundle.BundleID)
	}

	var rows []bitstreamModel
	if err := tx.Where("bundle_id IN ?", bundleIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("bundle_id IN ?", bundleIDs).Delete(&bitstreamModel{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("bundle_id IN ?", bundleIDs).Delete(&bundleModel{}).Error; err != nil {
		return nil, err
	}

	dropped := make([]entities.Bitstream, 0, len(rows))
	for _, row := range rows {
		dropped = append(dropped, row.toEntity())
	}
	return dropped, nil
}

func replaceFields(tx *gorm.DB, itemID string, changes []entities.FieldChange) error {
	for _, change := range changes {
		if err := tx.Where(
			"item_id = ? AND schema_name = ? AND element = ? AND qualifier = ?",
			itemID, change.Field.Schema, change.Field.Element, change.Field.Qualifier,
		).Delete(&metadataValueModel{}).Error; err != nil {
			return err
		}
		for place := range change.Values {
			model := metadataModelFromEntity(itemID, change.ValueAt(place))
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func touchAndRecord(tx *gorm.DB, itemID string, change entities.LicenseChange) error {
	if err := tx.Model(&itemModel{}).
		Where("item_id = ?", itemID).
		Update("updated_at", change.OccurredAt.UTC()).Error; err != nil {
		return err
	}
	envelope, err := application.BuildLicenseChangedEnvelope(change)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return tx.Create(&outboxModel{
		OutboxID:     change.EventID,
		EventType:    ports.LicenseChangedEventType,
		PartitionKey: itemID,
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    change.OccurredAt.UTC(),
	}).Error
}

type itemModel struct {
	ItemID       string    `gorm:"column:item_id;primaryKey"`
	Handle       string    `gorm:"column:handle"`
	Name         string    `gorm:"column:name"`
	CollectionID string    `gorm:"column:collection_id"`
	Withdrawn    bool      `gorm:"column:withdrawn"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (itemModel) TableName() string {
	return "cc_items"
}

func itemModelFromEntity(item entities.Item) itemModel {
	return itemModel{
		ItemID:       item.ItemID,
		Handle:       item.Handle,
		Name:         item.Name,
		CollectionID: item.CollectionID,
		Withdrawn:    item.Withdrawn,
		CreatedAt:    item.CreatedAt.UTC(),
		UpdatedAt:    item.UpdatedAt.UTC(),
	}
}

func (m itemModel) toEntity() entities.Item {
	return entities.Item{
		ItemID:       m.ItemID,
		Handle:       m.Handle,
		Name:         m.Name,
		CollectionID: m.CollectionID,
		Withdrawn:    m.Withdrawn,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type metadataValueModel struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID    string `gorm:"column:item_id"`
	Schema    string `gorm:"column:schema_name"`
	Element   string `gorm:"column:element"`
	Qualifier string `gorm:"column:qualifier"`
	Value     string `gorm:"column:value"`
	Language  string `gorm:"column:language"`
	Authority string `gorm:"column:authority"`
	Place     int    `gorm:"column:place"`
}

func (metadataValueModel) TableName() string {
	return "cc_metadata_values"
}

func metadataModelFromEntity(itemID string, value entities.MetadataValue) metadataValueModel {
	return metadataValueModel{
		ItemID:    itemID,
		Schema:    value.Schema,
		Element:   value.Element,
		Qualifier: value.Qualifier,
		Value:     value.Value,
		Language:  value.Language,
		Authority: value.Authority,
		Place:     value.Place,
	}
}

func (m metadataValueModel) toEntity() entities.MetadataValue {
	return entities.MetadataValue{
		Schema:    m.Schema,
		Element:   m.Element,
		Qualifier: m.Qualifier,
		Value:     m.Value,
		Language:  m.Language,
		Authority: m.Authority,
		Place:     m.Place,
	}
}

type bundleModel struct {
	BundleID  string    `gorm:"column:bundle_id;primaryKey"`
	ItemID    string    `gorm:"column:item_id"`
	Name      string    `gorm:"column:name"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (bundleModel) TableName() string {
	return "cc_bundles"
}

func bundleModelFromEntity(itemID string, bundle entities.Bundle) *bundleModel {
	createdAt := time.Now().UTC()
	if len(bundle.Bitstreams) > 0 && !bundle.Bitstreams[0].CreatedAt.IsZero() {
		createdAt = bundle.Bitstreams[0].CreatedAt.UTC()
	}
	return &bundleModel{
		BundleID:  bundle.BundleID,
		ItemID:    itemID,
		Name:      bundle.Name,
		CreatedAt: createdAt,
	}
}

type bitstreamModel struct {
	BitstreamID string    `gorm:"column:bitstream_id;primaryKey"`
	BundleID    string    `gorm:"column:bundle_id"`
	Name        string    `gorm:"column:name"`
	Source      string    `gorm:"column:source"`
	Format      string    `gorm:"column:format"`
	MimeType    string    `gorm:"column:mime_type"`
	SizeBytes   int64     `gorm:"column:size_bytes"`
	Checksum    string    `gorm:"column:checksum"`
	StorageKey  string    `gorm:"column:storage_key"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (bitstreamModel) TableName() string {
	return "cc_bitstreams"
}

func bitstreamModelFromEntity(bundleID string, bitstream entities.Bitstream) *bitstreamModel {
	return &bitstreamModel{
		BitstreamID: bitstream.BitstreamID,
		BundleID:    bundleID,
		Name:        bitstream.Name,
		Source:      bitstream.Source,
		Format:      bitstream.Format,
		MimeType:    bitstream.MimeType,
		SizeBytes:   bitstream.SizeBytes,
		Checksum:    bitstream.Checksum,
		StorageKey:  bitstream.StorageKey,
		CreatedAt:   bitstream.CreatedAt.UTC(),
	}
}

func (m bitstreamModel) toEntity() entities.Bitstream {
	return entities.Bitstream{
		BitstreamID: m.BitstreamID,
		BundleID:    m.BundleID,
		Name:        m.Name,
		Source:      m.Source,
		Format:      m.Format,
		MimeType:    m.MimeType,
		SizeBytes:   m.SizeBytes,
		Checksum:    m.Checksum,
		StorageKey:  m.StorageKey,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "cc_outbox"
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      m.Payload,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func decodeCursor(cursor string) int {
	if strings.TrimSpace(cursor) == "" {
		return 0
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}
