package commands

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

// SetLicenseResult reports the bitstream now holding the item license.
type SetLicenseResult struct {
	Bitstream entities.Bitstream
	Replaced  int
}

type bundleWriter struct {
	items      ports.ItemRepository
	bitstreams ports.BitstreamStore
	authorizer ports.Authorizer
	clock      ports.Clock
	ids        ports.IDGenerator
	settings   ports.Settings
	logger     *slog.Logger
}

type bundleWrite struct {
	actorID    string
	itemID     string
	name       string
	format     string
	mimeType   string
	licenseURI string
	content    io.Reader
	action     entities.LicenseAction
	// fields are committed together with the bundle swap.
	fields []entities.FieldChange
}

// replace stores the new license bytes first, then swaps the CC bundle,
// applies any field changes and writes the outbox row in one repository
// call. New bytes are deleted when that call fails; bytes of the swapped-out
// bitstreams are deleted only after it commits.
func (w bundleWriter) replace(ctx context.Context, input bundleWrite) (SetLicenseResult, error) {
	logger := application.ResolveLogger(w.logger)
	if !w.settings.Enabled {
		return SetLicenseResult{}, domainerrors.ErrLicensingDisabled
	}
	if strings.TrimSpace(input.itemID) == "" || input.content == nil {
		return SetLicenseResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	if err := application.Authorize(ctx, w.authorizer, input.actorID, ports.PermissionItemWrite, input.itemID); err != nil {
		logger.Warn("license write denied",
			"event", "cc_license_write_denied",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", input.itemID,
			"actor_id", input.actorID,
		)
		return SetLicenseResult{}, err
	}
	if _, err := w.items.GetItem(ctx, input.itemID); err != nil {
		return SetLicenseResult{}, application.PersistenceFailure(err)
	}

	now := w.now()
	bundleID, err := w.ids.NewID(ctx)
	if err != nil {
		return SetLicenseResult{}, err
	}
	bitstreamID, err := w.ids.NewID(ctx)
	if err != nil {
		return SetLicenseResult{}, err
	}
	eventID, err := w.ids.NewID(ctx)
	if err != nil {
		return SetLicenseResult{}, err
	}

	storageKey := StorageKey(input.itemID, bitstreamID)
	stored, err := w.bitstreams.Put(ctx, storageKey, input.content)
	if err != nil {
		logger.Error("license bitstream store failed",
			"event", "cc_license_store_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", input.itemID,
			"storage_key", storageKey,
			"error", err.Error(),
		)
		return SetLicenseResult{}, application.IOFailure(err)
	}

	bitstream := entities.Bitstream{
		BitstreamID: bitstreamID,
		BundleID:    bundleID,
		Name:        input.name,
		Source:      entities.LicenseBitstreamSource,
		Format:      input.format,
		MimeType:    input.mimeType,
		SizeBytes:   stored.SizeBytes,
		Checksum:    stored.Checksum,
		StorageKey:  stored.Key,
		CreatedAt:   now,
	}
	bundle := entities.Bundle{
		BundleID:   bundleID,
		ItemID:     input.itemID,
		Name:       entities.LicenseBundleName,
		Bitstreams: []entities.Bitstream{bitstream},
	}
	change := entities.LicenseChange{
		EventID:    eventID,
		ItemID:     input.itemID,
		ActorID:    input.actorID,
		Action:     input.action,
		LicenseURI: input.licenseURI,
		OccurredAt: now,
	}

	dropped, err := w.items.UpdateLicense(ctx, input.itemID, ports.LicenseUpdate{
		Fields: input.fields,
		Bundle: &bundle,
		Change: change,
	})
	if err != nil {
		logger.Error("license bundle replace failed",
			"event", "cc_license_bundle_replace_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", input.itemID,
			"error", err.Error(),
		)
		deleteStored(ctx, w.bitstreams, logger, []string{stored.Key})
		return SetLicenseResult{}, application.PersistenceFailure(err)
	}
	deleteStored(ctx, w.bitstreams, logger, storageKeys(dropped))

	logger.Info("license bitstream stored",
		"event", "cc_license_bitstream_stored",
		"module", application.ModuleName,
		"layer", "application",
		"item_id", input.itemID,
		"bitstream_id", bitstream.BitstreamID,
		"bitstream_name", bitstream.Name,
		"size_bytes", bitstream.SizeBytes,
		"replaced_count", len(dropped),
	)
	return SetLicenseResult{Bitstream: bitstream, Replaced: len(dropped)}, nil
}

func (w bundleWriter) now() time.Time {
	if w.clock == nil {
		return time.Now().UTC()
	}
	return w.clock.Now().UTC()
}

// StorageKey is the bitstream store key of a license bitstream.
func StorageKey(itemID string, bitstreamID string) string {
	return "cc/" + itemID + "/" + bitstreamID
}

func storageKeys(bitstreams []entities.Bitstream) []string {
	keys := make([]string, 0, len(bitstreams))
	for _, bitstream := range bitstreams {
		if bitstream.StorageKey != "" {
			keys = append(keys, bitstream.StorageKey)
		}
	}
	return keys
}

// deleteStored removes orphaned bytes; failures are logged only.
func deleteStored(ctx context.Context, store ports.BitstreamStore, logger *slog.Logger, keys []string) {
	for _, key := range keys {
		if err := store.Delete(ctx, key); err != nil {
			logger.Warn("license bitstream cleanup failed",
				"event", "cc_license_bitstream_cleanup_failed",
				"module", application.ModuleName,
				"layer", "application",
				"storage_key", key,
				"error", err.Error(),
			)
		}
	}
}
