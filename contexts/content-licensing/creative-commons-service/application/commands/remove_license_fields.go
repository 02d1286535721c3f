package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

type RemoveLicenseFieldsCommand struct {
	ActorID   string
	ItemID    string
	URIField  entities.LicenseMetadataValue
	NameField entities.LicenseMetadataValue
}

type RemoveLicenseFieldsResult struct {
	LicenseURI        string
	NameRemoved       bool
	RemovedBitstreams int
}

// RemoveLicenseFieldsUseCase removes license information recorded in
// metadata. The license name follows when cc.submit.setname is on and the
// CC bundle follows when cc.submit.addbitstream is on, all in one repository
// call with a single outbox event.
type RemoveLicenseFieldsUseCase struct {
	Items       ports.ItemRepository
	Bitstreams  ports.BitstreamStore
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Settings    ports.Settings
	Logger      *slog.Logger
}

func (u RemoveLicenseFieldsUseCase) Execute(ctx context.Context, cmd RemoveLicenseFieldsCommand) (RemoveLicenseFieldsResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if !u.Settings.Enabled {
		return RemoveLicenseFieldsResult{}, domainerrors.ErrLicensingDisabled
	}
	if strings.TrimSpace(cmd.ItemID) == "" || cmd.URIField.Field.Element == "" {
		return RemoveLicenseFieldsResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	if u.Settings.SetName && cmd.NameField.Field.Element == "" {
		return RemoveLicenseFieldsResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	if err := application.Authorize(ctx, u.Authorizer, cmd.ActorID, ports.PermissionItemWrite, cmd.ItemID); err != nil {
		return RemoveLicenseFieldsResult{}, err
	}

	item, err := u.Items.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return RemoveLicenseFieldsResult{}, application.PersistenceFailure(err)
	}

	licenseURI := cmd.URIField.ItemValue(item)
	if licenseURI == "" {
		return RemoveLicenseFieldsResult{}, nil
	}

	remainingURIs, _ := cmd.URIField.WithoutValue(item, licenseURI)
	changes := []entities.FieldChange{{Field: cmd.URIField.Field, Values: remainingURIs}}
	result := RemoveLicenseFieldsResult{LicenseURI: licenseURI}

	if u.Settings.SetName {
		// Resolve the name before the URI disappears; pairing is positional.
		if licenseName, ok := cmd.NameField.KeyedItemValue(item, cmd.URIField, licenseURI); ok {
			remainingNames, removed := cmd.NameField.WithoutValue(item, licenseName)
			changes = append(changes, entities.FieldChange{Field: cmd.NameField.Field, Values: remainingNames})
			result.NameRemoved = removed
		}
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RemoveLicenseFieldsResult{}, err
	}
	dropped, err := u.Items.UpdateLicense(ctx, cmd.ItemID, ports.LicenseUpdate{
		Fields:      changes,
		DropBundles: u.Settings.AddBitstream,
		Change: entities.LicenseChange{
			EventID:    eventID,
			ItemID:     cmd.ItemID,
			ActorID:    cmd.ActorID,
			Action:     entities.LicenseActionFieldsRemove,
			LicenseURI: licenseURI,
			OccurredAt: u.now(),
		},
	})
	if err != nil {
		logger.Error("remove license fields failed",
			"event", "cc_license_fields_remove_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return RemoveLicenseFieldsResult{}, application.PersistenceFailure(err)
	}
	if u.Bitstreams != nil {
		deleteStored(ctx, u.Bitstreams, logger, storageKeys(dropped))
	}
	result.RemovedBitstreams = len(dropped)

	logger.Info("license fields removed",
		"event", "cc_license_fields_removed",
		"module", application.ModuleName,
		"layer", "application",
		"item_id", cmd.ItemID,
		"license_uri", licenseURI,
		"name_removed", result.NameRemoved,
		"removed_bitstreams", result.RemovedBitstreams,
	)
	return result, nil
}

func (u RemoveLicenseFieldsUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
