package queries

import (
	"context"
	"log/slog"
	"strings"

	application "ccdepot/contexts/content-licensing/creative-commons-service/application"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

type HasLicenseQuery struct {
	ItemID string
}

// HasLicenseUseCase reports whether the item carries a CC bundle with an RDF
// or text license bitstream.
type HasLicenseUseCase struct {
	Items  ports.ItemRepository
	Logger *slog.Logger
}

func (u HasLicenseUseCase) Execute(ctx context.Context, query HasLicenseQuery) (bool, error) {
	if strings.TrimSpace(query.ItemID) == "" {
		return false, domainerrors.ErrInvalidLicenseRequest
	}
	item, err := u.Items.GetItem(ctx, query.ItemID)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("has license lookup failed",
			"event", "cc_has_license_failed",
			"module", application.ModuleName,
			"layer", "application",
			"item_id", query.ItemID,
			"error", err.Error(),
		)
		return false, application.PersistenceFailure(err)
	}
	return item.HasLicense(), nil
}
