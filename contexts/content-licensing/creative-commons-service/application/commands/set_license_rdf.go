package commands

import (
	"context"
	"log/slog"
	"strings"

	"ccdepot/contexts/content-licensing/creative-commons-service/domain/entities"
	domainerrors "ccdepot/contexts/content-licensing/creative-commons-service/domain/errors"
	"ccdepot/contexts/content-licensing/creative-commons-service/domain/services"
	"ccdepot/contexts/content-licensing/creative-commons-service/ports"
)

type SetLicenseRDFCommand struct {
	ActorID    string
	ItemID     string
	LicenseRDF string
}

// SetLicenseRDFUseCase stores an RDF license string as the item's
// license_rdf bitstream, replacing any previous CC bundle.
type SetLicenseRDFUseCase struct {
	Items       ports.ItemRepository
	Bitstreams  ports.BitstreamStore
	Authorizer  ports.Authorizer
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Settings    ports.Settings
	Logger      *slog.Logger
}

func (u SetLicenseRDFUseCase) Execute(ctx context.Context, cmd SetLicenseRDFCommand) (SetLicenseResult, error) {
	if strings.TrimSpace(cmd.LicenseRDF) == "" {
		return SetLicenseResult{}, domainerrors.ErrInvalidLicenseRequest
	}

	licenseURI := ""
	if doc, err := services.ParseLicenseDocument([]byte(cmd.LicenseRDF)); err == nil {
		licenseURI = services.LicenseURI(doc)
	}

	return u.writer().replace(ctx, bundleWrite{
		actorID:    cmd.ActorID,
		itemID:     cmd.ItemID,
		name:       entities.BitstreamNameLicenseRDF,
		format:     entities.FormatRDFXML,
		mimeType:   entities.MimeTypeRDFXML,
		licenseURI: licenseURI,
		content:    strings.NewReader(cmd.LicenseRDF),
		action:     entities.LicenseActionSet,
	})
}

func (u SetLicenseRDFUseCase) writer() bundleWriter {
	return bundleWriter{
		items:      u.Items,
		bitstreams: u.Bitstreams,
		authorizer: u.Authorizer,
		clock:      u.Clock,
		ids:        u.IDGenerator,
		settings:   u.Settings,
		logger:     u.Logger,
	}
}
