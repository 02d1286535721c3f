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

type RemoveLicenseCommand struct {
	ActorID string
	ItemID  string
}

type RemoveLicenseResult struct {
	RemovedBitstreams int
}

// RemoveLicenseUseCase drops the CC-LICENSE bundle and its stored bytes.
// Items without a CC bundle succeed without writing anything.
type RemoveLicenseUseCase struct {
	Items       ports.ItemRepository
	Bitstreams  ports.BitstreamStore
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Settings    ports.Settings
	Logger      *slog.Logger
}

func (u RemoveLicenseUseCase) Execute(ctx context.Context, cmd RemoveLicenseCommand) (RemoveLicenseResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if !u.Settings.Enabled {
		return RemoveLicenseResult{}, domainerrors.ErrLicensingDisabled
	}
	if strings.TrimSpace(cmd.ItemID) == "" {
		return RemoveLicenseResult{}, domainerrors.ErrInvalidLicenseRequest
	}
	if err := application.Authorize(ctx, u.Authorizer, cmd.ActorID, ports.PermissionItemWrite, cmd.ItemID); err != nil {
		return RemoveLicenseResult{}, err
	}

	item, err := u.Items.GetItem(ctx, cmd.ItemID)
	if err != nil {
		return RemoveLicenseResult{}, application.PersistenceFailure(err)
	}
	if len(item.BundlesByName(entities.LicenseBundleName)) == 0 {
		logger.Debug("remove license skipped, no license bundle",
			"event", "cc_license_remove_noop",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", cmd.ItemID,
		)
		return RemoveLicenseResult{}, nil
	}

	eventID, err := u.IDGenerator.NewID(ctx)
	if err != nil {
		return RemoveLicenseResult{}, err
	}
	dropped, err := u.Items.UpdateLicense(ctx, cmd.ItemID, ports.LicenseUpdate{
		DropBundles: true,
		Change: entities.LicenseChange{
			EventID:    eventID,
			ItemID:     cmd.ItemID,
			ActorID:    cmd.ActorID,
			Action:     entities.LicenseActionRemoved,
			OccurredAt: u.now(),
		},
	})
	if err != nil {
		logger.Error("remove license failed",
			"event", "cc_license_remove_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", cmd.ItemID,
			"error", err.Error(),
		)
		return RemoveLicenseResult{}, application.PersistenceFailure(err)
	}
	deleteStored(ctx, u.Bitstreams, logger, storageKeys(dropped))

	logger.Info("license removed",
		"event", "cc_license_removed",
		"module", application.ModuleName,
		"layer", "application",
		"item_id", cmd.ItemID,
		"removed_count", len(dropped),
	)
	return RemoveLicenseResult{RemovedBitstreams: len(dropped)}, nil
}

func (u RemoveLicenseUseCase) now() time.Time {
	if u.Clock == nil {
		return time.Now().UTC()
	}
	return u.Clock.Now().UTC()
}
